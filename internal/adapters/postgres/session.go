// Package postgres provisions or validates the backing PostgreSQL database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/stackup/internal/config"
	"github.com/example/stackup/internal/ports/secondary"
)

// Session is the subset of *pgx.Conn the provisioners use.
type Session interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// Dialer opens a Session for a connection string.
type Dialer func(ctx context.Context, connString string) (Session, error)

// PgxDialer is the production Dialer.
func PgxDialer(ctx context.Context, connString string) (Session, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

var (
	// ErrDatabaseMissing means the server is reachable but the database does not exist.
	ErrDatabaseMissing = errors.New("database does not exist")
	// ErrAuthFailed means the server rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnreachable means no server answered.
	ErrUnreachable = errors.New("server unreachable")
	// ErrPermission means the connected role lacks a required privilege.
	ErrPermission = errors.New("permission denied")
)

// SQLSTATE codes we classify.
const (
	codeInvalidCatalog    = "3D000"
	codeInvalidPassword   = "28P01"
	codeInvalidAuthSpec   = "28000"
	codeInsufficientPrivs = "42501"
)

// classify tags err with one of the sentinel errors when it is recognisable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidCatalog:
			return fmt.Errorf("%w: %w", ErrDatabaseMissing, err)
		case codeInvalidPassword, codeInvalidAuthSpec:
			return fmt.Errorf("%w: %w", ErrAuthFailed, err)
		case codeInsufficientPrivs:
			return fmt.Errorf("%w: %w", ErrPermission, err)
		}
		return err
	}
	var netErr net.Error
	var connErr *pgconn.ConnectError
	if errors.As(err, &netErr) || errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return err
}

// ConnString builds a libpq-style URL. An empty password is omitted so that
// trust or .pgpass authentication can apply.
func ConnString(host string, port int, user, password, dbname, sslmode string, timeout time.Duration) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + dbname,
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", sslmode)
	if timeout > 0 {
		secs := int(timeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// quoteIdent quotes a single SQL identifier.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteLiteral quotes a string literal for statements that cannot take
// bind parameters, such as CREATE ROLE ... PASSWORD.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func connParams(db config.DatabaseConfig) secondary.ConnParams {
	return secondary.ConnParams{
		Name:     db.Name,
		User:     db.User,
		Password: db.Password,
		Host:     db.Host,
		Port:     db.Port,
		SSLMode:  db.SSLMode,
	}
}

// appConnString connects as the application role to the application database.
func appConnString(db config.DatabaseConfig, timeout time.Duration) string {
	return ConnString(db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode, timeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
