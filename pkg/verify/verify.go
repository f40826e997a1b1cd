// Package verify checks emitted SQL against a live engine by preparing
// each statement. Preparation exercises the server's own parser and
// catalog without executing anything, so it catches both syntax drift and
// missing objects.
package verify

import (
	"context"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/errors"
)

// Checker prepares statements against one target engine.
type Checker interface {
	// Check prepares sql and reports the engine's verdict.
	Check(ctx context.Context, sql string) error
	// Close releases the underlying connection.
	Close() error
}

// New connects a checker for the target dialect. The DSN format is the
// target driver's own; for sqlite an empty DSN selects an in-memory
// database.
func New(ctx context.Context, d *dialect.Dialect, dsn string) (Checker, error) {
	switch d.Name {
	case "sqlite":
		return newSQLiteChecker(ctx, dsn)
	case "postgres":
		return newPostgresChecker(ctx, dsn)
	case "sqlserver":
		return newSQLServerChecker(ctx, dsn)
	}
	return nil, errors.Newf(errors.ErrCodeVerifyUnsupported,
		"no verifier for dialect %s", d.Name).
		WithField("dialect", d.Name).
		Err()
}

func prepareError(d string, err error) error {
	return errors.Wrap(err, errors.ErrCodeVerifyPrepare, "statement rejected").
		WithField("dialect", d).
		Err()
}

func connectError(d string, err error) error {
	return errors.Wrap(err, errors.ErrCodeVerifyConnect, "cannot connect").
		WithField("dialect", d).
		Err()
}
