package app

import (
	"context"
	"errors"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/core/artifact"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// RenderFunc renders the template with id against data.
type RenderFunc func(id string, data any) ([]byte, error)

// ScaffoldServiceImpl implements the ScaffoldService interface.
type ScaffoldServiceImpl struct {
	fs     secondary.ProjectFS
	render RenderFunc
}

// NewScaffoldService creates a new ScaffoldService.
func NewScaffoldService(fs secondary.ProjectFS, render RenderFunc) *ScaffoldServiceImpl {
	return &ScaffoldServiceImpl{fs: fs, render: render}
}

// Apply reads the target, merges the rendered template into it according to
// the artifact's strategy and writes the result when something changed.
func (s *ScaffoldServiceImpl) Apply(ctx context.Context, a artifact.Artifact, data any) (artifact.Result, error) {
	content, exists, err := s.fs.ReadFile(ctx, a.Path)
	if err != nil {
		return "", atPath(err, a.Path)
	}

	// Existing files are never rendered for create-if-absent.
	if _, ok := a.Strategy.(artifact.CreateIfAbsent); ok && exists {
		s.log(a, artifact.SkippedExists)
		return artifact.SkippedExists, nil
	}

	rendered, err := s.render(a.Template, data)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "render "+a.Path)
	}

	out, err := artifact.Merge(a.Strategy, artifact.Current{Exists: exists, Content: content}, rendered)
	if err != nil {
		return "", atPath(err, a.Path)
	}
	if out.Write {
		if err := s.fs.WriteFile(ctx, a.Path, out.Content, fileMode(a.Path)); err != nil {
			return "", atPath(err, a.Path)
		}
	}
	s.log(a, out.Result)
	return out.Result, nil
}

// EnsureDirs creates each directory; existing ones are left alone.
func (s *ScaffoldServiceImpl) EnsureDirs(ctx context.Context, dirs []string) error {
	for _, d := range dirs {
		if err := s.fs.MkdirAll(ctx, d); err != nil {
			return atPath(err, d)
		}
	}
	return nil
}

func (s *ScaffoldServiceImpl) log(a artifact.Artifact, r artifact.Result) {
	logger.L().Debug("artifact applied",
		zap.String("artifact", a.Path),
		zap.String("strategy", a.Strategy.StrategyName()),
		zap.String("result", string(r)))
}

func fileMode(p string) os.FileMode {
	if path.Base(p) == "manage.py" {
		return 0755
	}
	return 0644
}

// atPath prefixes a coded error's message with the artifact path. Uncoded
// errors become ARTIFACT_IO.
func atPath(err error, p string) error {
	var e *apperrors.Error
	if !errors.As(err, &e) {
		return apperrors.Wrap(err, apperrors.CodeArtifactIO, p).WithMeta("path", p)
	}
	out := &apperrors.Error{Code: e.Code, Message: p + ": " + e.Message, Err: e.Err}
	for k, v := range e.Meta {
		out = out.WithMeta(k, v)
	}
	return out.WithMeta("path", p)
}

var _ primary.ScaffoldService = (*ScaffoldServiceImpl)(nil)
