package verify

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteChecker struct {
	db *sql.DB
}

func newSQLiteChecker(ctx context.Context, dsn string) (Checker, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, connectError("sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, connectError("sqlite", err)
	}
	return &sqliteChecker{db: db}, nil
}

func (c *sqliteChecker) Check(ctx context.Context, sqlText string) error {
	stmt, err := c.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return prepareError("sqlite", err)
	}
	return stmt.Close()
}

func (c *sqliteChecker) Close() error {
	return c.db.Close()
}

// Exec runs a statement outright. Verification sessions use it to lay down
// the schema the checked statements refer to.
func (c *sqliteChecker) Exec(ctx context.Context, sqlText string) error {
	if _, err := c.db.ExecContext(ctx, sqlText); err != nil {
		return prepareError("sqlite", err)
	}
	return nil
}
