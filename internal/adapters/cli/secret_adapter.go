package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/stackup/internal/core/secret"
	"github.com/example/stackup/internal/ports/primary"
)

// SecretAdapter ensures secrets from the command line. Values are never
// printed.
type SecretAdapter struct {
	service primary.SecretService
	out     io.Writer
}

// NewSecretAdapter creates a new SecretAdapter with the given service.
func NewSecretAdapter(service primary.SecretService, out io.Writer) *SecretAdapter {
	return &SecretAdapter{service: service, out: out}
}

// Ensure makes sure key holds a usable secret.
func (a *SecretAdapter) Ensure(ctx context.Context, key string, force bool) error {
	rec, err := a.service.Ensure(ctx, key, secret.Default(), force)
	if err != nil {
		return err
	}
	if rec.Generated {
		fmt.Fprintf(a.out, "%s Generated %s in %s\n", green("✓"), rec.Key, rec.StorePath)
		return nil
	}
	fmt.Fprintf(a.out, "%s %s already set in %s (use --force to replace)\n", green("✓"), rec.Key, rec.StorePath)
	return nil
}
