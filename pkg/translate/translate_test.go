package translate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/emit"
	"github.com/transqlate/transqlate/pkg/errors"
)

func newTranslator(t *testing.T, source, target string, policy emit.Policy) *Translator {
	t.Helper()
	src, err := dialect.Lookup(source)
	require.NoError(t, err)
	tgt, err := dialect.Lookup(target)
	require.NoError(t, err)
	tr, err := New(Options{Source: src, Target: tgt, Policy: policy})
	require.NoError(t, err)
	return tr
}

func TestNewValidation(t *testing.T) {
	pg, err := dialect.Lookup("postgres")
	require.NoError(t, err)

	_, err = New(Options{Target: pg})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))

	_, err = New(Options{Source: pg, Target: pg, Workers: -1})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
}

func TestStatement(t *testing.T) {
	tr := newTranslator(t, "mysql", "postgres", emit.PolicyStrict)

	res := tr.Statement("SELECT `id`, IFNULL(name, 'n/a') FROM users LIMIT 5, 10")
	require.NoError(t, res.Err)
	assert.Equal(t, `SELECT "id", COALESCE(name, 'n/a') FROM users LIMIT 10 OFFSET 5`, res.Output)
	assert.False(t, res.Skipped)
}

func TestStatementFeatures(t *testing.T) {
	tr := newTranslator(t, "postgres", "mysql", emit.PolicyStrict)

	res := tr.Statement("WITH RECURSIVE r AS (SELECT 1 UNION ALL SELECT n + 1 FROM r) SELECT n FROM r")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Features, dialect.FeatureRecursiveCTE)
}

func TestStatementSkipDirective(t *testing.T) {
	tr := newTranslator(t, "postgres", "sqlite", emit.PolicyStrict)

	res := tr.Statement("-- @xlate: skip\nSELECT pg_sleep(1)")
	require.NoError(t, res.Err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "SELECT pg_sleep(1)", res.Output)
}

func TestStatementPolicyDirective(t *testing.T) {
	// strict would refuse the boolean literal; the directive relaxes it.
	tr := newTranslator(t, "postgres", "sqlserver", emit.PolicyStrict)

	res := tr.Statement("SELECT id FROM t WHERE active = TRUE")
	require.Error(t, res.Err)
	assert.Equal(t, errors.ErrCodeEmitUnsupportedFeature, errors.GetCode(res.Err))

	res = tr.Statement("-- @xlate: policy=best-effort\nSELECT id FROM t WHERE active = TRUE")
	require.NoError(t, res.Err)
	assert.Equal(t, "SELECT id FROM t WHERE active = 1", res.Output)
}

func TestStatementBadPolicyDirective(t *testing.T) {
	tr := newTranslator(t, "postgres", "sqlite", emit.PolicyStrict)

	res := tr.Statement("-- @xlate: policy=lenient\nSELECT 1")
	require.Error(t, res.Err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(res.Err))
}

func TestStatementErrorCodes(t *testing.T) {
	tr := newTranslator(t, "postgres", "mysql", emit.PolicyStrict)

	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"unterminated string", "SELECT 'abc", errors.ErrCodeLexUnterminatedString},
		{"unterminated comment", "SELECT 1 /* oops", errors.ErrCodeLexUnterminatedComment},
		{"unterminated body", "SELECT $fn$ BEGIN", errors.ErrCodeLexUnterminatedBody},
		{"syntax error", "SELECT FROM WHERE", errors.ErrCodeParseUnexpectedToken},
		{"duplicate row limit", "SELECT TOP 5 id FROM t LIMIT 3", errors.ErrCodeParseInvalidClause},
		{"unsupported statement", "GRANT ALL ON t TO alice", errors.ErrCodeParseUnsupportedStatement},
		{"bad type argument", "SELECT CAST(x AS DECIMAL(1.5)) FROM t", errors.ErrCodeParseBadLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tr.Statement(tt.input)
			require.Error(t, res.Err)
			assert.Equal(t, tt.code, errors.GetCode(res.Err))
		})
	}
}

func TestBatchOrderAndSummary(t *testing.T) {
	tr := newTranslator(t, "sqlserver", "postgres", emit.PolicyStrict)

	input := strings.Join([]string{
		"SELECT TOP 5 id FROM a;",
		"-- @xlate: skip",
		"EXEC sp_help;",
		"SELECT FROM;",
		"SELECT x + ' ' + y FROM b;",
	}, "\n")

	results, sum, err := tr.Batch(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
	}
	assert.Equal(t, "SELECT id FROM a LIMIT 5", results[0].Output)
	assert.True(t, results[1].Skipped)
	assert.Error(t, results[2].Err)
	assert.Equal(t, "SELECT x || ' ' || y FROM b", results[3].Output)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Translated)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Failed)
}

func TestBatchCancellation(t *testing.T) {
	tr := newTranslator(t, "postgres", "mysql", emit.PolicyStrict)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stmts := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		stmts = append(stmts, "SELECT 1;")
	}
	_, _, err := tr.Batch(ctx, strings.Join(stmts, "\n"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTranslateCancelled, errors.GetCode(err))
}

func TestBatchEmpty(t *testing.T) {
	tr := newTranslator(t, "postgres", "mysql", emit.PolicyStrict)

	results, sum, err := tr.Batch(context.Background(), "  \n\t")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, sum.Total)
}

func TestRoundTripIdempotence(t *testing.T) {
	tests := []struct {
		input string
		via   string
	}{
		{"SELECT id, name FROM users WHERE age > $1 ORDER BY name LIMIT 10", "mysql"},
		{"INSERT INTO t (a, b) VALUES ($1, $2) RETURNING id", "sqlite"},
		{"SELECT a || b FROM t GROUP BY a || b HAVING COUNT(*) > 1", "mysql"},
	}
	for _, tt := range tests {
		forward := newTranslator(t, "postgres", tt.via, emit.PolicyStrict)
		back := newTranslator(t, tt.via, "postgres", emit.PolicyStrict)

		res := forward.Statement(tt.input)
		require.NoError(t, res.Err, tt.input)
		res2 := back.Statement(res.Output)
		require.NoError(t, res2.Err, res.Output)
		assert.Equal(t, tt.input, res2.Output)
	}
}
