package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/errors"
)

func TestUnsupportedDialect(t *testing.T) {
	d, err := dialect.Lookup("oracle")
	require.NoError(t, err)

	_, err = New(context.Background(), d, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeVerifyUnsupported, errors.GetCode(err))
}

func TestSQLiteCheck(t *testing.T) {
	ctx := context.Background()
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)

	c, err := New(ctx, d, "")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Check(ctx, "SELECT 1"))

	err = c.Check(ctx, "SELECT FROM")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeVerifyPrepare, errors.GetCode(err))
}

func TestSQLiteCheckAgainstSchema(t *testing.T) {
	ctx := context.Background()
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)

	c, err := New(ctx, d, "")
	require.NoError(t, err)
	defer c.Close()

	sc := c.(*sqliteChecker)
	require.NoError(t, sc.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))

	require.NoError(t, c.Check(ctx, "SELECT id, name FROM users WHERE id = ?"))

	err = c.Check(ctx, "SELECT id FROM missing_table")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeVerifyPrepare, errors.GetCode(err))
}
