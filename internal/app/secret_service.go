package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/core/secret"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/ports/primary"
	"github.com/example/stackup/internal/ports/secondary"
)

// SecretServiceImpl implements the SecretService interface on an env store.
type SecretServiceImpl struct {
	store secondary.EnvStore
}

// NewSecretService creates a new SecretService.
func NewSecretService(store secondary.EnvStore) *SecretServiceImpl {
	return &SecretServiceImpl{store: store}
}

// Ensure keeps an existing real value and otherwise stores a generated one.
// Placeholder values count as absent. A nil gen uses secret.Default().
func (s *SecretServiceImpl) Ensure(ctx context.Context, key string, gen secret.Generator, force bool) (primary.SecretRecord, error) {
	if key == "" {
		return primary.SecretRecord{}, apperrors.New(apperrors.CodeUsage, "secret key name is required")
	}
	if gen == nil {
		gen = secret.Default()
	}

	current, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return primary.SecretRecord{}, err
	}
	if ok && !force && !secret.IsPlaceholder(current) {
		logger.L().Debug("secret kept", zap.String("key", key))
		return primary.SecretRecord{Key: key, Value: current, StorePath: s.store.Path()}, nil
	}

	value, err := gen()
	if err != nil {
		return primary.SecretRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "generate "+key)
	}
	if err := secret.CheckStrength(value); err != nil {
		return primary.SecretRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "generate "+key)
	}
	if err := s.store.Set(ctx, []secondary.EnvVar{{Key: key, Value: value}}); err != nil {
		return primary.SecretRecord{}, err
	}

	logger.L().Info("secret generated", zap.String("key", key), zap.Bool("forced", force && ok))
	return primary.SecretRecord{Key: key, Value: value, StorePath: s.store.Path(), Generated: true}, nil
}

var _ primary.SecretService = (*SecretServiceImpl)(nil)
