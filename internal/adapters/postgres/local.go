package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/stackup/internal/config"
	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/logger"
	"github.com/example/stackup/internal/ports/secondary"
)

// MaintenanceDB is the database the superuser connects to for DDL.
const MaintenanceDB = "postgres"

// LocalOptions configures the Local provisioner.
type LocalOptions struct {
	Superuser         string
	SuperuserPassword string
	ConnectTimeout    time.Duration
	Dial              Dialer // Defaults to PgxDialer
}

// Local creates the role, database and grants on a server we administer.
// Each step checks the catalog first, so repeated runs change nothing.
type Local struct {
	db   config.DatabaseConfig
	opts LocalOptions
}

// NewLocal creates a Local provisioner for db.
func NewLocal(db config.DatabaseConfig, opts LocalOptions) *Local {
	if opts.Dial == nil {
		opts.Dial = PgxDialer
	}
	if opts.Superuser == "" {
		opts.Superuser = db.Superuser
	}
	return &Local{db: db, opts: opts}
}

// Mode returns "local".
func (l *Local) Mode() string { return string(config.ModeLocal) }

func (l *Local) connectAdmin(ctx context.Context) (Session, error) {
	dctx, cancel := withTimeout(ctx, l.opts.ConnectTimeout)
	defer cancel()
	conn := ConnString(l.db.Host, l.db.Port, l.opts.Superuser, l.opts.SuperuserPassword,
		MaintenanceDB, l.db.SSLMode, l.opts.ConnectTimeout)
	sess, err := l.opts.Dial(dctx, conn)
	if err != nil {
		return nil, stepError("connect", fmt.Sprintf("connect to %s:%d as %s", l.db.Host, l.db.Port, l.opts.Superuser), err)
	}
	return sess, nil
}

// catalogState is what the superuser sees before any step runs.
type catalogState struct {
	roleExists bool
	dbExists   bool
	privileged bool
}

func (l *Local) inspect(ctx context.Context, sess Session) (catalogState, error) {
	var st catalogState
	if err := sess.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)`, l.db.User,
	).Scan(&st.roleExists); err != nil {
		return st, stepError("check-role", "check role "+l.db.User, err)
	}
	if err := sess.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, l.db.Name,
	).Scan(&st.dbExists); err != nil {
		return st, stepError("check-database", "check database "+l.db.Name, err)
	}
	if !st.roleExists || !st.dbExists {
		return st, nil
	}
	if err := sess.QueryRow(ctx,
		`SELECT has_database_privilege($1::name, $2::text, 'CREATE')
		    AND has_database_privilege($1::name, $2::text, 'CONNECT')
		    AND has_database_privilege($1::name, $2::text, 'TEMPORARY')`,
		l.db.User, l.db.Name,
	).Scan(&st.privileged); err != nil {
		return st, stepError("check-privileges", "check privileges of "+l.db.User, err)
	}
	return st, nil
}

// Inspect reports whether role, database and grants are all in place.
func (l *Local) Inspect(ctx context.Context) (secondary.ProvisionResult, bool, error) {
	res := secondary.ProvisionResult{Status: secondary.ProvisionAlreadyExists, Conn: connParams(l.db)}
	sess, err := l.connectAdmin(ctx)
	if err != nil {
		return res, false, err
	}
	defer sess.Close(ctx)

	st, err := l.inspect(ctx, sess)
	if err != nil {
		return res, false, err
	}
	return res, st.roleExists && st.dbExists && st.privileged, nil
}

// Provision creates whatever is missing: role, then database, then grants.
// A failing step aborts; earlier steps are not rolled back.
func (l *Local) Provision(ctx context.Context) (secondary.ProvisionResult, error) {
	res := secondary.ProvisionResult{Conn: connParams(l.db)}
	log := logger.L().With(zap.String("database", l.db.Name), zap.String("role", l.db.User))

	sess, err := l.connectAdmin(ctx)
	if err != nil {
		return res, err
	}
	defer sess.Close(ctx)

	st, err := l.inspect(ctx, sess)
	if err != nil {
		return res, err
	}

	if !st.roleExists {
		stmt := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s", quoteIdent(l.db.User), quoteLiteral(l.db.Password))
		if _, err := sess.Exec(ctx, stmt); err != nil {
			return res, stepError("create-role", "create role "+l.db.User, err)
		}
		res.RoleCreated = true
		log.Info("role created")
	}

	if !st.dbExists {
		stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s ENCODING 'UTF8'", quoteIdent(l.db.Name), quoteIdent(l.db.User))
		if _, err := sess.Exec(ctx, stmt); err != nil {
			return res, stepError("create-database", "create database "+l.db.Name, err)
		}
		res.DatabaseCreated = true
		log.Info("database created")
	}

	if !st.privileged {
		stmt := fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", quoteIdent(l.db.Name), quoteIdent(l.db.User))
		if _, err := sess.Exec(ctx, stmt); err != nil {
			return res, stepError("grant", fmt.Sprintf("grant privileges on %s to %s", l.db.Name, l.db.User), err)
		}
		res.PrivilegesGranted = true
		log.Info("privileges granted")
	}

	if res.RoleCreated || res.DatabaseCreated || res.PrivilegesGranted {
		res.Status = secondary.ProvisionCreated
	} else {
		res.Status = secondary.ProvisionAlreadyExists
	}

	if err := l.verifyLogin(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// verifyLogin connects with the application credentials, catching a
// pre-existing role whose password differs from the configured one.
func (l *Local) verifyLogin(ctx context.Context) error {
	dctx, cancel := withTimeout(ctx, l.opts.ConnectTimeout)
	defer cancel()
	sess, err := l.opts.Dial(dctx, appConnString(l.db, l.opts.ConnectTimeout))
	if err != nil {
		return stepError("verify-login", fmt.Sprintf("log in as %s to %s", l.db.User, l.db.Name), err)
	}
	defer sess.Close(ctx)

	var one int
	if err := sess.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return stepError("verify-login", fmt.Sprintf("query %s as %s", l.db.Name, l.db.User), err)
	}
	return nil
}

func stepError(step, msg string, err error) error {
	return apperrors.Wrap(classify(err), apperrors.CodeProvisioningDenied, msg).WithMeta("step", step)
}

// Ensure Local implements the interface
var _ secondary.DatabaseProvisioner = (*Local)(nil)
