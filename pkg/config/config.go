// Package config loads and validates translator configuration from YAML
// files.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/emit"
	"github.com/transqlate/transqlate/pkg/errors"
	"github.com/transqlate/transqlate/pkg/log"
)

// Config is the top-level configuration.
type Config struct {
	// Source and Target name registered dialects.
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`

	// Policy names the emit policy: strict, best-effort or annotate.
	Policy string `yaml:"policy" json:"policy"`

	// Workers bounds batch parallelism. Zero selects the default.
	Workers int `yaml:"workers" json:"workers"`

	Log    LogConfig    `yaml:"log" json:"log"`
	Verify VerifyConfig `yaml:"verify" json:"verify"`

	// Dialects holds per-dialect overrides applied on top of the built-in
	// grammar tables.
	Dialects map[string]DialectOverride `yaml:"dialects" json:"dialects"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// VerifyConfig configures post-translation verification against a live
// engine.
type VerifyConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DSN     string `yaml:"dsn" json:"dsn"`
}

// DialectOverride adjusts a registered dialect's tables.
type DialectOverride struct {
	// Functions maps canonical function names to target spellings.
	Functions map[string]string `yaml:"functions" json:"functions"`

	// Features enables or disables feature tags by name.
	Features map[string]bool `yaml:"features" json:"features"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Policy: "strict",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(err, errors.ErrCodeConfigMissing, "config file not found").
				WithField("path", path).
				Err()
		}
		return cfg, errors.Wrap(err, errors.ErrCodeConfigInvalid, "cannot read config file").
			WithField("path", path).
			Err()
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, errors.ErrCodeConfigParse, "cannot parse config file").
			WithField("path", path).
			Err()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency. Source and Target may
// be empty here; the command line supplies them when the file does not.
func (c *Config) Validate() error {
	if c.Source != "" {
		if _, err := dialect.Lookup(c.Source); err != nil {
			return errors.Wrap(err, errors.ErrCodeDialectUnknown, "invalid source dialect").Err()
		}
	}
	if c.Target != "" {
		if _, err := dialect.Lookup(c.Target); err != nil {
			return errors.Wrap(err, errors.ErrCodeDialectUnknown, "invalid target dialect").Err()
		}
	}
	if _, err := emit.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.Newf(errors.ErrCodeConfigValidation, "workers must not be negative: %d", c.Workers).Err()
	}
	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid log level").Err()
		}
	}
	if c.Log.Format != "" {
		if _, err := log.ParseFormat(c.Log.Format); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid log format").Err()
		}
	}
	for name, ov := range c.Dialects {
		if _, err := dialect.Lookup(name); err != nil {
			return errors.Wrap(err, errors.ErrCodeDialectUnknown, "override for unknown dialect").
				WithField("dialect", name).
				Err()
		}
		for fname := range ov.Features {
			if _, err := dialect.ParseFeature(fname); err != nil {
				return errors.Wrap(err, errors.ErrCodeFeatureUnknown, "invalid feature override").
					WithField("dialect", name).
					WithField("feature", fname).
					Err()
			}
		}
	}
	return nil
}

// Dialect resolves a dialect by name with any configured override applied.
// Overrides operate on a clone; registered dialects are never mutated.
func (c *Config) Dialect(name string) (*dialect.Dialect, error) {
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, errors.UnknownDialect(name).WithCause(err).Err()
	}
	// Override keys may use aliases; match on the resolved name.
	var ov DialectOverride
	found := false
	for key, o := range c.Dialects {
		if od, err := dialect.Lookup(key); err == nil && od.Name == d.Name {
			ov = o
			found = true
			break
		}
	}
	if !found {
		return d, nil
	}

	clone := d.Clone()
	for canonical, spelling := range ov.Functions {
		clone.Functions[canonical] = spelling
	}
	for fname, enabled := range ov.Features {
		f, err := dialect.ParseFeature(fname)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFeatureUnknown, "invalid feature override").Err()
		}
		clone.Features[f] = enabled
	}
	clone.Freeze()
	return clone, nil
}
