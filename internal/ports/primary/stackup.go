// Package primary defines the primary ports (driving adapters) for stackup.
package primary

import (
	"context"

	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/core/phase"
	"github.com/example/stackup/internal/core/prereq"
	"github.com/example/stackup/internal/core/secret"
	"github.com/example/stackup/internal/ports/secondary"
)

// PrerequisiteService checks external tools before anything is mutated.
type PrerequisiteService interface {
	// Check probes every requirement. It never fails as a whole; failures
	// are reported per entry.
	Check(ctx context.Context, reqs []prereq.Requirement) prereq.Report
}

// SecretService ensures secrets exist in the env store.
type SecretService interface {
	// Ensure returns the existing non-placeholder value for key, or stores a
	// freshly generated one. force replaces any existing value.
	Ensure(ctx context.Context, key string, gen secret.Generator, force bool) (SecretRecord, error)
}

// SecretRecord describes a secret after Ensure.
type SecretRecord struct {
	Key       string
	Value     string
	StorePath string
	Generated bool
}

// ScaffoldService applies artifacts to the project tree.
type ScaffoldService interface {
	// Apply renders and merges one artifact.
	Apply(ctx context.Context, a artifact.Artifact, data any) (artifact.Result, error)

	// EnsureDirs creates directories below the project root.
	EnsureDirs(ctx context.Context, dirs []string) error
}

// Registration adds a module to the project's installed-apps block and a
// route to its routes block. A registration without Module only adds the
// route, which is how third-party URL confs are mounted.
type Registration struct {
	Module string
	Route  string // URL prefix, "" mounts at the site root
	URLs   string // Python include target, defaults to "<Module>.urls"
}

// Include returns the URL conf the route includes.
func (r Registration) Include() string {
	if r.URLs != "" {
		return r.URLs
	}
	return r.Module + ".urls"
}

// SettingsService registers modules with the project's settings and URL config.
type SettingsService interface {
	// Register inserts the module and its route. Both edits are computed
	// before either is written.
	Register(ctx context.Context, reg Registration) ([]AppliedArtifact, error)
}

// AppliedArtifact is one artifact outcome within a phase.
type AppliedArtifact struct {
	Path     string
	Strategy string
	Result   artifact.Result
}

// PhaseReport is the outcome of running one phase.
type PhaseReport struct {
	RunID     string
	PhaseID   string
	Status    phase.Status
	Skipped   bool // Already complete; nothing applied
	Applied   []AppliedArtifact
	Secrets   []SecretRecord
	Provision *secondary.ProvisionResult
	Missing   []string // Postcondition items still missing on failure
}

// PhaseState is the detected state of a phase, used by status.
type PhaseState struct {
	PhaseID  string
	Ordinal  int
	Complete bool
	Missing  []string
}

// PhaseOrchestrator drives phases through their lifecycle.
type PhaseOrchestrator interface {
	// Run executes a single phase. Its predecessor must be complete.
	Run(ctx context.Context, phaseID string) (*PhaseReport, error)

	// RunThrough executes every phase up to and including phaseID, stopping
	// at the first failure.
	RunThrough(ctx context.Context, phaseID string) ([]*PhaseReport, error)

	// Status detects the state of every phase without changing anything.
	Status(ctx context.Context) ([]PhaseState, error)
}

// HistoryService reads the run journal.
type HistoryService interface {
	// ListRuns returns recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*secondary.RunRecord, error)

	// RunDetail returns the phases and artifacts of one run.
	RunDetail(ctx context.Context, runID string) ([]*secondary.PhaseRecord, []*secondary.ArtifactRecord, error)
}
