// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/elements-sync/pkg/types"
)

const recordColumns = `id, author_id, paper_id, publisher, acquisition_method, COALESCE(doi, ''), citation, COALESCE(message, ''), created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (types.Record, error) {
	var (
		r                types.Record
		method           string
		created, updated int64
	)
	err := row.Scan(&r.ID, &r.AuthorID, &r.PaperID, &r.Publisher, &method, &r.DOI, &r.Citation, &r.Message, &created, &updated)
	if err != nil {
		return types.Record{}, err
	}
	r.AcquisitionMethod = types.AcquisitionMethod(method)
	r.CreatedAt = fromUnix(created)
	r.UpdatedAt = fromUnix(updated)
	return r, nil
}

// RecordFor returns the record keyed by (authorID, paperID). ok is false
// when none exists.
func (s *Store) RecordFor(ctx context.Context, authorID int64, paperID string) (types.Record, bool, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE author_id = ? AND paper_id = ?`, authorID, paperID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, false, nil
	}
	if err != nil {
		return types.Record{}, false, fmt.Errorf("querying record %s for author %d: %w", paperID, authorID, err)
	}
	return r, true, nil
}

// RecordByID returns the record with the given ID, or ErrNotFound.
func (s *Store) RecordByID(ctx context.Context, id int64) (types.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("querying record %d: %w", id, err)
	}
	return r, nil
}

// RecordsForAuthor lists an author's records ordered by ID.
func (s *Store) RecordsForAuthor(ctx context.Context, authorID int64) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE author_id = ? ORDER BY id`, authorID)
	if err != nil {
		return nil, fmt.Errorf("querying records for author %d: %w", authorID, err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// PaperRequested reports whether any record for paperID, under any author,
// is linked to an email that has been sent.
func (s *Store) PaperRequested(ctx context.Context, paperID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM records r JOIN emails e ON e.record_id = r.id
		 WHERE r.paper_id = ? AND e.date_sent IS NOT NULL`, paperID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking requests for paper %s: %w", paperID, err)
	}
	return n > 0, nil
}

// DuplicateRecords returns the IDs of the author's records that share
// citation but carry a different paper ID.
func (s *Store) DuplicateRecords(ctx context.Context, authorID int64, citation, paperID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE author_id = ? AND citation = ? AND paper_id <> ? ORDER BY id`,
		authorID, citation, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying duplicates of paper %s: %w", paperID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning duplicate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveRecord inserts r or overwrites the record keyed by (AuthorID,
// PaperID). Concurrent saves of the same key are last-write-wins. The
// stored record is returned with ID and timestamps filled in.
func (s *Store) SaveRecord(ctx context.Context, r types.Record) (types.Record, error) {
	if strings.TrimSpace(r.Citation) == "" {
		return types.Record{}, fmt.Errorf("record %s: citation must not be blank", r.PaperID)
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (author_id, paper_id, publisher, acquisition_method, doi, citation, message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(author_id, paper_id) DO UPDATE SET
			publisher=excluded.publisher, acquisition_method=excluded.acquisition_method,
			doi=excluded.doi, citation=excluded.citation, message=excluded.message,
			updated_at=excluded.updated_at`,
		r.AuthorID, r.PaperID, r.Publisher, string(r.AcquisitionMethod),
		nullString(r.DOI), r.Citation, nullString(r.Message), toUnix(now), toUnix(now),
	)
	if err != nil {
		return types.Record{}, fmt.Errorf("upserting record %s: %w", r.PaperID, err)
	}

	saved, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE author_id = ? AND paper_id = ?`, r.AuthorID, r.PaperID))
	if err != nil {
		return types.Record{}, fmt.Errorf("reading back record %s: %w", r.PaperID, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Record{}, fmt.Errorf("committing record %s: %w", r.PaperID, err)
	}
	return saved, nil
}

// CreateEmail opens an unsent email for a record and returns its ID.
func (s *Store) CreateEmail(ctx context.Context, recordID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO emails (record_id) VALUES (?)`, recordID)
	if err != nil {
		return 0, fmt.Errorf("creating email for record %d: %w", recordID, err)
	}
	return res.LastInsertId()
}

// MarkEmailSent stamps the email's send date.
func (s *Store) MarkEmailSent(ctx context.Context, emailID int64, when time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE emails SET date_sent = ? WHERE id = ?`, toUnix(when), emailID)
	if err != nil {
		return fmt.Errorf("marking email %d sent: %w", emailID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("email %d: %w", emailID, ErrNotFound)
	}
	return nil
}

// MarkRecordSent marks the record's pending email sent, opening one first
// if the record has none, and returns the record.
func (s *Store) MarkRecordSent(ctx context.Context, recordID int64, when time.Time) (types.Record, error) {
	r, err := s.RecordByID(ctx, recordID)
	if err != nil {
		return types.Record{}, err
	}

	var emailID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM emails WHERE record_id = ? AND date_sent IS NULL ORDER BY id LIMIT 1`, recordID,
	).Scan(&emailID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if emailID, err = s.CreateEmail(ctx, recordID); err != nil {
			return types.Record{}, err
		}
	case err != nil:
		return types.Record{}, fmt.Errorf("querying pending email for record %d: %w", recordID, err)
	}

	if err := s.MarkEmailSent(ctx, emailID, when); err != nil {
		return types.Record{}, err
	}
	return r, nil
}
