package verify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type postgresChecker struct {
	conn *pgx.Conn
	seq  int
}

func newPostgresChecker(ctx context.Context, dsn string) (Checker, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, connectError("postgres", err)
	}
	return &postgresChecker{conn: conn}, nil
}

func (c *postgresChecker) Check(ctx context.Context, sqlText string) error {
	c.seq++
	name := fmt.Sprintf("verify_%d", c.seq)
	if _, err := c.conn.Prepare(ctx, name, sqlText); err != nil {
		return prepareError("postgres", err)
	}
	return c.conn.Deallocate(ctx, name)
}

func (c *postgresChecker) Close() error {
	return c.conn.Close(context.Background())
}
