package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/ports/secondary"
)

// Remote validates a database provisioned by someone else. It never creates anything.
type Remote struct {
	db      config.DatabaseConfig
	timeout time.Duration
	dial    Dialer
}

// NewRemote creates a Remote provisioner. A nil dial uses PgxDialer.
func NewRemote(db config.DatabaseConfig, timeout time.Duration, dial Dialer) *Remote {
	if dial == nil {
		dial = PgxDialer
	}
	return &Remote{db: db, timeout: timeout, dial: dial}
}

// Mode returns "remote".
func (r *Remote) Mode() string { return string(config.ModeRemote) }

func (r *Remote) probe(ctx context.Context) error {
	dctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	sess, err := r.dial(dctx, appConnString(r.db, r.timeout))
	if err != nil {
		return stepError("connect", fmt.Sprintf("connect to %s@%s:%d/%s", r.db.User, r.db.Host, r.db.Port, r.db.Name), err)
	}
	defer sess.Close(ctx)

	var dbName, user string
	if err := sess.QueryRow(ctx, "SELECT current_database(), current_user").Scan(&dbName, &user); err != nil {
		return stepError("probe", "probe "+r.db.Name, err)
	}
	return nil
}

// Provision validates connectivity with the configured credentials.
func (r *Remote) Provision(ctx context.Context) (secondary.ProvisionResult, error) {
	res := secondary.ProvisionResult{Conn: connParams(r.db)}
	if err := r.probe(ctx); err != nil {
		return res, err
	}
	res.Status = secondary.ProvisionValidatedRemote
	return res, nil
}

// Inspect performs the same read-only probe as Provision.
func (r *Remote) Inspect(ctx context.Context) (secondary.ProvisionResult, bool, error) {
	res, err := r.Provision(ctx)
	if err != nil {
		return res, false, err
	}
	return res, true, nil
}

// Ensure Remote implements the interface
var _ secondary.DatabaseProvisioner = (*Remote)(nil)
