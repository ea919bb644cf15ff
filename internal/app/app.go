// Package app is the layer between the CLI and the romdb service. It
// merges config-file defaults with flag values, opens the store and
// the logger, and exposes the high-level operations.
package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/romdb/romdb/internal/config"
	"github.com/romdb/romdb/internal/database"
	"github.com/romdb/romdb/internal/romdb"
)

// Options are the CLI flag values; empty strings fall back to the
// config file.
type Options struct {
	Database string
	Schema   string
	Config   string // manifest configuration name
}

// App owns an open store and the service bound to it. The caller must
// call Close when done.
type App struct {
	svc     *romdb.Service
	store   *database.Store
	cfgName string
	logFile *os.File
}

// LoadConfig reads the per-user config file; absence yields defaults.
func LoadConfig() (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return &config.Config{}, nil
	}
	return config.ReadFromFile(path)
}

// Open opens an existing database for dump and verify. The database
// must exist and hold the romdb schema.
func Open(opts Options) (*App, error) {
	return open(opts, false)
}

// OpenOrCreate opens the database for import, creating the schema when
// the database is empty.
func OpenOrCreate(opts Options) (*App, error) {
	return open(opts, true)
}

func open(opts Options, create bool) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath == "" {
		return nil, fmt.Errorf("no database path: pass -o or set database in the config file")
	}
	schemaPath := opts.Schema
	if schemaPath == "" {
		schemaPath = cfg.Schema
	}
	cfgName := opts.Config
	if cfgName == "" {
		cfgName = cfg.Configuration
	}

	logger, logFile, err := newLogger(cfg.LogDir, uuid.NewString())
	if err != nil {
		return nil, err
	}

	var store *database.Store
	if create {
		store, err = database.OpenOrCreate(dbPath, schemaPath)
	} else {
		store, err = database.Open(dbPath)
	}
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	return &App{
		svc:     romdb.New(store, &slogAdapter{l: logger}),
		store:   store,
		cfgName: cfgName,
		logFile: logFile,
	}, nil
}

// Import ingests the manifest tree at importPath. romsPath may be
// empty, selecting the importPath/files pool.
func (a *App) Import(romsPath, importPath string) error {
	if romsPath == "" {
		return a.svc.Import(importPath, a.cfgName)
	}
	return a.svc.ImportFrom(romsPath, importPath, a.cfgName)
}

// Dump writes the reconstructed tree under dumpPath.
func (a *App) Dump(dumpPath string, full bool) error {
	return a.svc.Dump(dumpPath, full)
}

// Verify checks stored checksums and prints the per-system report.
func (a *App) Verify() error {
	reports, err := a.svc.Verify()
	if err != nil {
		return err
	}
	for _, report := range reports {
		fmt.Printf("%s - %s\n", report.Code, report.Name)
		for _, file := range report.BadFiles {
			fmt.Printf("bad         : %s\n", file)
		}
		fmt.Printf("total good  : %d\n", report.Good)
		fmt.Printf("total bad   : %d\n", report.Bad)
		fmt.Printf("no checksum : %d\n\n", report.NoChecksum)
	}
	return nil
}

// ConfigName returns the effective manifest configuration name.
func (a *App) ConfigName() string { return a.cfgName }

// Close releases the store and the log file.
func (a *App) Close() error {
	err := a.store.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
