package verify

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"
)

type sqlserverChecker struct {
	db *sql.DB
}

func newSQLServerChecker(ctx context.Context, dsn string) (Checker, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, connectError("sqlserver", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, connectError("sqlserver", err)
	}
	return &sqlserverChecker{db: db}, nil
}

func (c *sqlserverChecker) Check(ctx context.Context, sqlText string) error {
	stmt, err := c.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return prepareError("sqlserver", err)
	}
	return stmt.Close()
}

func (c *sqlserverChecker) Close() error {
	return c.db.Close()
}
