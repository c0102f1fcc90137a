package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/stackup/internal/config"
	corephase "github.com/example/stackup/internal/core/phase"
	"github.com/example/stackup/internal/core/secret"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// OrchestratorImpl implements the PhaseOrchestrator interface.
type OrchestratorImpl struct {
	cfg      config.ProjectConfig
	env      phases.Env
	secrets  primary.SecretService
	scaffold primary.ScaffoldService
	settings primary.SettingsService
	journal  secondary.Journal // Optional
	gen      secret.Generator
	newID    func() string
	now      func() time.Time
}

// OrchestratorOption customises an orchestrator.
type OrchestratorOption func(*OrchestratorImpl)

// WithJournal records runs in j.
func WithJournal(j secondary.Journal) OrchestratorOption {
	return func(o *OrchestratorImpl) { o.journal = j }
}

// WithSecretGenerator replaces the default secret generator.
func WithSecretGenerator(gen secret.Generator) OrchestratorOption {
	return func(o *OrchestratorImpl) { o.gen = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *OrchestratorImpl) { o.now = now }
}

// WithIDGenerator replaces the uuid run ID source.
func WithIDGenerator(newID func() string) OrchestratorOption {
	return func(o *OrchestratorImpl) { o.newID = newID }
}

// NewOrchestrator creates a new PhaseOrchestrator.
func NewOrchestrator(
	cfg config.ProjectConfig,
	env phases.Env,
	secrets primary.SecretService,
	scaffold primary.ScaffoldService,
	settings primary.SettingsService,
	opts ...OrchestratorOption,
) *OrchestratorImpl {
	o := &OrchestratorImpl{
		cfg:      cfg,
		env:      env,
		secrets:  secrets,
		scaffold: scaffold,
		settings: settings,
		gen:      secret.Default(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one phase. Its predecessor must already be complete.
func (o *OrchestratorImpl) Run(ctx context.Context, phaseID string) (*primary.PhaseReport, error) {
	p, err := lookupPhase(phaseID)
	if err != nil {
		return nil, err
	}
	runID := o.startRun(ctx, phaseID)
	report, err := o.runPhase(ctx, runID, p)
	o.finishRun(ctx, runID, err)
	return report, err
}

// RunThrough executes every phase up to and including phaseID as one run,
// stopping at the first failure.
func (o *OrchestratorImpl) RunThrough(ctx context.Context, phaseID string) ([]*primary.PhaseReport, error) {
	if _, err := lookupPhase(phaseID); err != nil {
		return nil, err
	}
	runID := o.startRun(ctx, phaseID)

	var reports []*primary.PhaseReport
	for _, p := range phases.All() {
		report, err := o.runPhase(ctx, runID, p)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			o.finishRun(ctx, runID, err)
			return reports, err
		}
		if p.ID == phaseID {
			break
		}
	}
	o.finishRun(ctx, runID, nil)
	return reports, nil
}

// Status detects every phase without changing anything.
func (o *OrchestratorImpl) Status(ctx context.Context) ([]primary.PhaseState, error) {
	var states []primary.PhaseState
	for _, p := range phases.All() {
		d, err := p.Detect(ctx, o.cfg, o.env)
		if err != nil {
			return nil, err
		}
		states = append(states, primary.PhaseState{
			PhaseID:  p.ID,
			Ordinal:  p.Ordinal,
			Complete: d.Complete,
			Missing:  d.Missing,
		})
	}
	return states, nil
}

func lookupPhase(id string) (phases.Phase, error) {
	p, ok := phases.Get(id)
	if !ok {
		return phases.Phase{}, apperrors.Newf(apperrors.CodeUsage, "unknown phase %q (valid: %v)", id, phases.IDs())
	}
	return p, nil
}

// runPhase drives p through its lifecycle. The returned report is nil only
// when the phase was refused before it started.
func (o *OrchestratorImpl) runPhase(ctx context.Context, runID string, p phases.Phase) (*primary.PhaseReport, error) {
	log := logger.L().With(zap.String("run_id", runID), zap.String("phase", p.ID))

	if err := o.checkOrder(ctx, p); err != nil {
		log.Warn("phase refused", zap.Error(err))
		return nil, err
	}

	report := &primary.PhaseReport{RunID: runID, PhaseID: p.ID, Status: corephase.InitialStatus()}

	d, err := p.Detect(ctx, o.cfg, o.env)
	if err != nil {
		return nil, err
	}
	if corephase.AlreadyComplete(d) {
		if err := o.transition(report, corephase.StatusCompleted); err != nil {
			return nil, err
		}
		report.Skipped = true
		if p.Provision {
			if res, usable, err := o.env.Provisioner.Inspect(ctx); err == nil && usable {
				report.Provision = &res
			}
		}
		log.Info("phase already complete")
		o.recordPhase(ctx, report, "")
		return report, nil
	}

	if err := o.transition(report, corephase.StatusRunning); err != nil {
		return nil, err
	}
	log.Info("phase started")

	steps := corephase.PlanSteps(corephase.PlanInput{
		Secrets:       len(p.Secrets),
		Provision:     p.Provision,
		Directories:   len(p.Dirs(o.cfg)),
		Artifacts:     len(p.Artifacts(o.cfg)),
		Registrations: len(p.Registrations(o.cfg)),
	})
	for _, step := range steps {
		if err := o.runStep(ctx, p, step, report); err != nil {
			return o.fail(ctx, report, step, err)
		}
		log.Debug("step finished", zap.String("step", string(step)))
	}

	if err := o.transition(report, corephase.StatusCompleted); err != nil {
		return o.fail(ctx, report, corephase.StepVerify, err)
	}
	log.Info("phase completed", zap.Int("artifacts", len(report.Applied)))
	o.recordPhase(ctx, report, "")
	return report, nil
}

func (o *OrchestratorImpl) checkOrder(ctx context.Context, p phases.Phase) error {
	pred, ok := phases.Predecessor(p.ID)
	if !ok {
		return nil
	}
	d, err := pred.Detect(ctx, o.cfg, o.env)
	if err != nil {
		return err
	}
	guard := corephase.CanStartPhase(corephase.StartContext{
		PhaseID:     p.ID,
		Predecessor: pred.ID,
		PredState:   d,
	})
	if !guard.Allowed {
		return apperrors.New(apperrors.CodePhaseOrder, guard.Reason).WithMeta("predecessor", pred.ID)
	}
	return nil
}

func (o *OrchestratorImpl) runStep(ctx context.Context, p phases.Phase, step corephase.StepKind, report *primary.PhaseReport) error {
	switch step {
	case corephase.StepSecrets:
		for _, key := range p.Secrets {
			rec, err := o.secrets.Ensure(ctx, key, o.gen, false)
			if err != nil {
				return err
			}
			rec.Value = ""
			report.Secrets = append(report.Secrets, rec)
		}

	case corephase.StepProvision:
		res, err := o.env.Provisioner.Provision(ctx)
		if err != nil {
			return err
		}
		report.Provision = &res
		if err := o.env.Store.Set(ctx, phases.DatabaseEnv(res.Conn)); err != nil {
			return err
		}

	case corephase.StepDirectories:
		return o.scaffold.EnsureDirs(ctx, p.Dirs(o.cfg))

	case corephase.StepArtifacts:
		for _, pl := range p.Artifacts(o.cfg) {
			res, err := o.scaffold.Apply(ctx, pl.Artifact, phases.Data(o.cfg, pl.App))
			if err != nil {
				return err
			}
			o.applied(ctx, report, primary.AppliedArtifact{
				Path:     pl.Artifact.Path,
				Strategy: pl.Artifact.Strategy.StrategyName(),
				Result:   res,
			})
		}

	case corephase.StepRegistrations:
		for _, reg := range p.Registrations(o.cfg) {
			applied, err := o.settings.Register(ctx, reg)
			for _, a := range applied {
				o.applied(ctx, report, a)
			}
			if err != nil {
				return err
			}
		}

	case corephase.StepVerify:
		d, err := p.Detect(ctx, o.cfg, o.env)
		if err != nil {
			return err
		}
		if guard := corephase.CheckPostcondition(p.ID, d); !guard.Allowed {
			report.Missing = d.Missing
			return apperrors.New(apperrors.CodePostcondition, guard.Reason)
		}
	}
	return nil
}

func (o *OrchestratorImpl) applied(ctx context.Context, report *primary.PhaseReport, a primary.AppliedArtifact) {
	report.Applied = append(report.Applied, a)
	if o.journal == nil {
		return
	}
	err := o.journal.RecordArtifact(ctx, &secondary.ArtifactRecord{
		RunID:    report.RunID,
		PhaseID:  report.PhaseID,
		Path:     a.Path,
		Strategy: a.Strategy,
		Result:   string(a.Result),
	})
	if err != nil {
		logger.L().Warn("journal write failed", zap.Error(err))
	}
}

func (o *OrchestratorImpl) fail(ctx context.Context, report *primary.PhaseReport, step corephase.StepKind, cause error) (*primary.PhaseReport, error) {
	if err := o.transition(report, corephase.StatusFailed); err != nil {
		return report, err
	}
	logger.L().Error("phase failed",
		zap.String("run_id", report.RunID),
		zap.String("phase", report.PhaseID),
		zap.String("step", string(step)),
		zap.Int("applied", len(report.Applied)),
		zap.Error(cause))
	o.recordPhase(ctx, report, cause.Error())

	var e *apperrors.Error
	if errors.As(cause, &e) {
		e.WithMeta("phase", report.PhaseID).WithMeta("step", string(step))
		return report, e
	}
	return report, apperrors.Wrap(cause, apperrors.CodeInternal, "phase "+report.PhaseID+" step "+string(step)).
		WithMeta("phase", report.PhaseID).
		WithMeta("step", string(step))
}

func (o *OrchestratorImpl) transition(report *primary.PhaseReport, to corephase.Status) error {
	res, err := corephase.Transition(report.Status, to, o.now())
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "phase "+report.PhaseID)
	}
	report.Status = res.NewStatus
	return nil
}

func (o *OrchestratorImpl) startRun(ctx context.Context, target string) string {
	id := o.newID()
	if o.journal == nil {
		return id
	}
	err := o.journal.StartRun(ctx, &secondary.RunRecord{ID: id, Project: o.cfg.ProjectName, Target: target})
	if err != nil {
		logger.L().Warn("journal write failed", zap.Error(err))
	}
	return id
}

func (o *OrchestratorImpl) finishRun(ctx context.Context, runID string, cause error) {
	if o.journal == nil {
		return
	}
	status, msg := string(corephase.StatusCompleted), ""
	if cause != nil {
		status, msg = string(corephase.StatusFailed), cause.Error()
	}
	if err := o.journal.FinishRun(ctx, runID, status, msg); err != nil {
		logger.L().Warn("journal write failed", zap.Error(err))
	}
}

func (o *OrchestratorImpl) recordPhase(ctx context.Context, report *primary.PhaseReport, detail string) {
	if o.journal == nil {
		return
	}
	err := o.journal.RecordPhase(ctx, &secondary.PhaseRecord{
		RunID:   report.RunID,
		PhaseID: report.PhaseID,
		Status:  string(report.Status),
		Skipped: report.Skipped,
		Detail:  detail,
	})
	if err != nil {
		logger.L().Warn("journal write failed", zap.Error(err))
	}
}

var _ primary.PhaseOrchestrator = (*OrchestratorImpl)(nil)
