// Package config reads the optional romdb configuration file. Every
// value can be overridden by a CLI flag; a missing config file is not
// an error.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config supplies defaults for the CLI flags.
type Config struct {
	// Database is the default database file path (-o).
	Database string `toml:"database"`
	// Schema is the default schema SQL file (-s); empty selects the
	// built-in schema.
	Schema string `toml:"schema"`
	// LogDir receives romdb.log; empty disables the log file and
	// keeps logging on stderr only.
	LogDir string `toml:"log_dir"`
	// Configuration is the default manifest configuration name (-c).
	Configuration string `toml:"configuration"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "romdb", "config.toml"), nil
}

// Read decodes a Config from the provided reader.
func Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ReadFromFile reads the config at path. A missing file yields an
// empty config.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}
