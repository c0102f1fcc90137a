package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/core/artifact"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/phases"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// SettingsMergerImpl implements the SettingsService interface.
type SettingsMergerImpl struct {
	fs  secondary.ProjectFS
	cfg config.ProjectConfig
}

// NewSettingsMerger creates a new SettingsService for the project in cfg.
func NewSettingsMerger(fs secondary.ProjectFS, cfg config.ProjectConfig) *SettingsMergerImpl {
	return &SettingsMergerImpl{fs: fs, cfg: cfg}
}

type pendingFile struct {
	exists  bool
	content []byte
	dirty   bool
}

// Register adds reg's module to installed-apps and its route to routes.
// Every edit is computed in memory first; a conflict in any block means
// nothing is written.
func (s *SettingsMergerImpl) Register(ctx context.Context, reg primary.Registration) ([]primary.AppliedArtifact, error) {
	arts := phases.RegistrationArtifacts(s.cfg, reg)

	files := map[string]*pendingFile{}
	var order []string
	applied := make([]primary.AppliedArtifact, 0, len(arts))

	for _, a := range arts {
		f, ok := files[a.Path]
		if !ok {
			content, exists, err := s.fs.ReadFile(ctx, a.Path)
			if err != nil {
				return nil, atPath(err, a.Path)
			}
			f = &pendingFile{exists: exists, content: content}
			files[a.Path] = f
			order = append(order, a.Path)
		}

		out, err := artifact.Merge(a.Strategy, artifact.Current{Exists: f.exists, Content: f.content}, nil)
		if err != nil {
			return nil, atPath(err, a.Path)
		}
		if out.Write {
			f.content, f.dirty = out.Content, true
		}
		applied = append(applied, primary.AppliedArtifact{
			Path:     a.Path,
			Strategy: a.Strategy.StrategyName(),
			Result:   out.Result,
		})
	}

	for _, p := range order {
		f := files[p]
		if !f.dirty {
			continue
		}
		if err := s.fs.WriteFile(ctx, p, f.content, 0644); err != nil {
			return applied, atPath(err, p)
		}
	}

	logger.L().Debug("module registered",
		zap.String("module", reg.Module),
		zap.String("route", reg.Route))
	return applied, nil
}

var _ primary.SettingsService = (*SettingsMergerImpl)(nil)
