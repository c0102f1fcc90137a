// Package app contains the application layer: service implementations that
// drive the functional core through the secondary ports.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/prereq"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// defaultProbes are tried in order until one prints a version.
var defaultProbes = [][]string{{"--version"}, {"-version"}}

// PrerequisiteServiceImpl implements the PrerequisiteService interface.
type PrerequisiteServiceImpl struct {
	runner secondary.ToolRunner
}

// NewPrerequisiteService creates a new PrerequisiteService.
func NewPrerequisiteService(runner secondary.ToolRunner) *PrerequisiteServiceImpl {
	return &PrerequisiteServiceImpl{runner: runner}
}

// Check probes every requirement in order.
func (s *PrerequisiteServiceImpl) Check(ctx context.Context, reqs []prereq.Requirement) prereq.Report {
	report := prereq.Report{Entries: make([]prereq.Entry, 0, len(reqs))}
	for _, req := range reqs {
		entry := s.check(ctx, req)
		logger.L().Debug("prerequisite checked",
			zap.String("tool", req.Tool),
			zap.String("status", string(entry.Status)),
			zap.String("version", entry.Version))
		report.Entries = append(report.Entries, entry)
	}
	return report
}

func (s *PrerequisiteServiceImpl) check(ctx context.Context, req prereq.Requirement) prereq.Entry {
	path, err := s.runner.LookPath(req.Tool)
	if err != nil {
		return prereq.Evaluate(req, false, "", "")
	}

	probes := defaultProbes
	if len(req.Args) > 0 {
		probes = [][]string{req.Args}
	}

	var output string
	for _, args := range probes {
		res, err := s.runner.Run(ctx, path, args)
		if err != nil {
			continue
		}
		output = res.Stdout + "\n" + res.Stderr
		if res.ExitCode == 0 && prereq.ParseVersion(output) != "" {
			break
		}
	}
	return prereq.Evaluate(req, true, path, output)
}

// RequirementsFor returns the tools cfg needs: python3 and pip3 always,
// psql when the database is provisioned locally, then any configured extras
// and the requirements of each feature module. Duplicates are dropped.
func RequirementsFor(cfg config.ProjectConfig) []prereq.Requirement {
	reqs := []prereq.Requirement{
		{Tool: "python3", MinVersion: "3.10"},
		{Tool: "pip3"},
	}
	if cfg.Local() {
		reqs = append(reqs, prereq.Requirement{Tool: "psql"})
	}
	extras := append([]config.ToolRequirement{}, cfg.Prerequisites...)
	for _, f := range cfg.Features {
		extras = append(extras, f.Requires...)
	}
	for _, t := range extras {
		reqs = append(reqs, prereq.Requirement{Tool: t.Tool, MinVersion: t.MinVersion, Args: t.Args})
	}
	return dedupeRequirements(reqs)
}

func dedupeRequirements(reqs []prereq.Requirement) []prereq.Requirement {
	type key struct{ tool, min string }
	seen := map[key]bool{}
	out := reqs[:0]
	for _, r := range reqs {
		k := key{r.Tool, r.MinVersion}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

var _ primary.PrerequisiteService = (*PrerequisiteServiceImpl)(nil)
