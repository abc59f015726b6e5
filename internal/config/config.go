// Package config loads the CLI settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cgalavis/schemakit"
)

// Environment keys.
const (
	EnvSupportedVersion   = "SCHEMAKIT_SUPPORTED_VERSION"
	EnvCyclePolicy        = "SCHEMAKIT_CYCLE_POLICY"
	EnvVerbose            = "SCHEMAKIT_VERBOSE"
	EnvMaxDepth           = "SCHEMAKIT_MAX_DEPTH"
	EnvAllowDuplicateKeys = "SCHEMAKIT_ALLOW_DUPLICATE_KEYS"
	EnvTemplates          = "SCHEMAKIT_TEMPLATES"
)

type Config struct {
	SupportedVersion   schemakit.Version
	CyclePolicy        schemakit.CyclePolicy
	Verbose            bool
	MaxDepth           int
	AllowDuplicateKeys bool
	// Templates is a glob of extra generator templates.
	Templates string
}

// Load reads files (default ".env") and the process environment. Variables
// already set in the environment win over file values; missing files are
// skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fromFiles := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: %s: %w", f, err)
		}
		for k, v := range m {
			if _, ok := fromFiles[k]; !ok {
				fromFiles[k] = v
			}
		}
	}
	return FromEnv(func(k string) string {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
		return fromFiles[k]
	})
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	c := &Config{
		SupportedVersion: schemakit.DefaultSupportedVersion,
		Templates:        strings.TrimSpace(getenv(EnvTemplates)),
	}
	var err error
	if v := strings.TrimSpace(getenv(EnvSupportedVersion)); v != "" {
		if c.SupportedVersion, err = schemakit.ParseVersion(v); err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvSupportedVersion, err)
		}
	}
	if c.CyclePolicy, err = schemakit.ParseCyclePolicy(getenv(EnvCyclePolicy)); err != nil {
		return nil, fmt.Errorf("config: %s: %w", EnvCyclePolicy, err)
	}
	if c.Verbose, err = boolVar(getenv, EnvVerbose); err != nil {
		return nil, err
	}
	if c.AllowDuplicateKeys, err = boolVar(getenv, EnvAllowDuplicateKeys); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(getenv(EnvMaxDepth)); v != "" {
		if c.MaxDepth, err = strconv.Atoi(v); err != nil || c.MaxDepth < 0 {
			return nil, fmt.Errorf("config: %s: invalid depth %q", EnvMaxDepth, v)
		}
	}
	return c, nil
}

func boolVar(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

// Options turns the config into registry options. logger is used only when
// Verbose is set.
func (c *Config) Options(logger *log.Logger) []schemakit.Option {
	opts := []schemakit.Option{
		schemakit.WithSupportedVersion(c.SupportedVersion),
		schemakit.WithCyclePolicy(c.CyclePolicy),
		schemakit.WithDuplicateKeys(c.AllowDuplicateKeys),
	}
	if c.MaxDepth > 0 {
		opts = append(opts, schemakit.WithMaxDepth(c.MaxDepth))
	}
	if c.Verbose {
		opts = append(opts, schemakit.WithLogger(logger))
	}
	return opts
}
