// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the local side of the registry sync in SQLite: the
// author and record tables the importer reconciles against, and the
// append-only audit log of outbound calls.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// DefaultPath is the database file used when StoreConfig.Path is empty.
const DefaultPath = "data/elements-sync.db"

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Store manages the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; concurrent imports queue on the pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS dlcs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dlc_id INTEGER NOT NULL REFERENCES dlcs(id),
			email TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			id_hash TEXT NOT NULL UNIQUE,
			registry_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			author_id INTEGER NOT NULL REFERENCES authors(id),
			paper_id TEXT NOT NULL,
			publisher TEXT NOT NULL,
			acquisition_method TEXT NOT NULL,
			doi TEXT,
			citation TEXT NOT NULL CHECK (trim(citation) <> ''),
			message TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE (author_id, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_paper_id ON records(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_author_citation ON records(author_id, citation)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id INTEGER NOT NULL REFERENCES records(id),
			date_sent INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_record_id ON emails(record_id)`,
		`CREATE TABLE IF NOT EXISTS outbound_calls (
			id TEXT PRIMARY KEY,
			request_url TEXT NOT NULL,
			request_xml TEXT NOT NULL,
			response_body TEXT,
			response_status INTEGER,
			timestamp INTEGER NOT NULL,
			retry_of TEXT REFERENCES outbound_calls(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_calls_retry_of ON outbound_calls(retry_of)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_calls_timestamp ON outbound_calls(timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
