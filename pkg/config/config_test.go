package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transqlate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
source: postgres
target: mysql
policy: best-effort
workers: 8
log:
  level: debug
  format: json
verify:
  enabled: true
  dsn: "file:check.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Source)
	assert.Equal(t, "mysql", cfg.Target)
	assert.Equal(t, "best-effort", cfg.Policy)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, "file:check.db", cfg.Verify.DSN)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigMissing, errors.GetCode(err))
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "source: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigParse, errors.GetCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode errors.Code // zero means valid
	}{
		{"defaults", func(c *Config) {}, 0},
		{"empty dialects allowed", func(c *Config) { c.Source = "" }, 0},
		{"unknown source", func(c *Config) { c.Source = "db2" }, errors.ErrCodeDialectUnknown},
		{"unknown target", func(c *Config) { c.Target = "informix" }, errors.ErrCodeDialectUnknown},
		{"bad policy", func(c *Config) { c.Policy = "lenient" }, errors.ErrCodeConfigValidation},
		{"negative workers", func(c *Config) { c.Workers = -1 }, errors.ErrCodeConfigValidation},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, errors.ErrCodeConfigValidation},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, errors.ErrCodeConfigValidation},
		{"override unknown dialect", func(c *Config) {
			c.Dialects = map[string]DialectOverride{"db2": {}}
		}, errors.ErrCodeDialectUnknown},
		{"override unknown feature", func(c *Config) {
			c.Dialects = map[string]DialectOverride{
				"mysql": {Features: map[string]bool{"TIME_TRAVEL": true}},
			}
		}, errors.ErrCodeFeatureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDialectOverride(t *testing.T) {
	path := writeConfig(t, `
source: postgres
target: mysql
dialects:
  mysql:
    functions:
      NOW: CURRENT_TIMESTAMP
    features:
      RETURNING_CLAUSE: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	d, err := cfg.Dialect("mysql")
	require.NoError(t, err)
	assert.Equal(t, "CURRENT_TIMESTAMP", d.FunctionSpelling("NOW"))
	assert.True(t, d.Supports(dialect.FeatureReturningClause))

	// The registry copy is untouched.
	orig, err := dialect.Lookup("mysql")
	require.NoError(t, err)
	assert.Equal(t, "NOW", orig.FunctionSpelling("NOW"))
	assert.False(t, orig.Supports(dialect.FeatureReturningClause))
}

func TestDialectOverrideByAlias(t *testing.T) {
	cfg := Default()
	cfg.Dialects = map[string]DialectOverride{
		"pg": {Features: map[string]bool{"MERGE_STATEMENT": false}},
	}
	require.NoError(t, cfg.Validate())

	d, err := cfg.Dialect("postgres")
	require.NoError(t, err)
	assert.False(t, d.Supports(dialect.FeatureMergeStatement))
}

func TestDialectUnknown(t *testing.T) {
	cfg := Default()
	_, err := cfg.Dialect("db2")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDialectUnknown, errors.GetCode(err))
}

func TestDialectNoOverride(t *testing.T) {
	cfg := Default()
	d, err := cfg.Dialect("sqlite")
	require.NoError(t, err)

	orig, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	assert.Same(t, orig, d)
}
