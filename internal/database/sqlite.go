// Package database wraps the embedded SQLite store holding systems,
// media, files, checksums and tags.
package database

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/romdb/romdb/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is the single process-wide handle on a romdb database file.
// Statements execute standalone; there is no cross-statement
// transaction (a crash mid-import leaves a partially populated but
// structurally valid database).
type Store struct {
	db   *sql.DB
	path string
}

// OpenConnection opens and configures a SQLite connection. path can be
// a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for
	// backward compatibility).
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Open opens an existing database file and validates its schema.
// Missing files and files that do not hold the romdb schema are
// rejected.
func Open(path string) (*Store, error) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, fmt.Errorf("invalid romdb database %s", path)
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.validate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid romdb database %s: %w", path, err)
	}
	return s, nil
}

// OpenOrCreate opens the database at path, creating the schema when
// the database is empty. schemaPath, when it names an existing file,
// supplies the DDL; otherwise the built-in schema is applied through
// the embedded migrations.
func OpenOrCreate(path, schemaPath string) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	empty, err := s.empty()
	if err != nil {
		db.Close()
		return nil, err
	}
	if empty {
		if err := s.createSchema(schemaPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := s.validate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid romdb database %s: %w", path, err)
	}
	return s, nil
}

// empty reports whether the database holds no tables at all.
func (s *Store) empty() (bool, error) {
	var count int64
	err := s.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("inspecting schema: %w", err)
	}
	return count == 0, nil
}

func (s *Store) createSchema(schemaPath string) error {
	if schemaPath != "" {
		if info, err := os.Stat(schemaPath); err == nil && !info.IsDir() {
			ddl, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("reading schema file: %w", err)
			}
			if _, err := s.db.Exec(string(ddl)); err != nil {
				return fmt.Errorf("applying schema file: %w", err)
			}
			return nil
		}
	}
	return migrations.MigrateUp(s.db)
}

// validate probes each table with its canonical single-row query. A
// database is a romdb database iff every probe succeeds.
func (s *Store) validate() error {
	probes := []string{
		"SELECT id, name, code FROM system WHERE id = -1",
		"SELECT id, name, system_id FROM media WHERE id = -1",
		"SELECT id, name, data, size, compression, media_id, parent_id FROM file WHERE id = -1",
		"SELECT file_id, name, data FROM checksum WHERE file_id = -1",
		"SELECT id, name, value FROM tag WHERE id = -1",
		"SELECT tag_id, media_id FROM mediatag WHERE tag_id = -1",
		"SELECT tag_id, file_id FROM filetag WHERE tag_id = -1",
	}
	for _, probe := range probes {
		rows, err := s.db.Query(probe)
		if err != nil {
			return err
		}
		rows.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
