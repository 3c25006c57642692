// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// GetOrCreateDLC returns the DLC with the given name, creating it if needed.
func (s *Store) GetOrCreateDLC(ctx context.Context, name string) (types.DLC, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.DLC{}, fmt.Errorf("DLC name is required")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO dlcs (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name,
	); err != nil {
		return types.DLC{}, fmt.Errorf("inserting DLC %q: %w", name, err)
	}

	d := types.DLC{Name: name}
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM dlcs WHERE name = ?`, name,
	).Scan(&d.ID); err != nil {
		return types.DLC{}, fmt.Errorf("reading DLC %q: %w", name, err)
	}
	return d, nil
}

const authorColumns = `a.id, a.dlc_id, d.name, a.email, a.first_name, a.last_name, a.id_hash, COALESCE(a.registry_id, '')`

func scanAuthor(row interface{ Scan(...any) error }) (types.Author, error) {
	var a types.Author
	err := row.Scan(&a.ID, &a.DLCID, &a.DLCName, &a.Email, &a.FirstName, &a.LastName, &a.IDHash, &a.RegistryID)
	return a, err
}

// AuthorByHash looks up an author by the salted hash of the institutional ID.
// ok is false when no author matches.
func (s *Store) AuthorByHash(ctx context.Context, hash string) (types.Author, bool, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors a JOIN dlcs d ON d.id = a.dlc_id WHERE a.id_hash = ?`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Author{}, false, nil
	}
	if err != nil {
		return types.Author{}, false, fmt.Errorf("querying author by hash: %w", err)
	}
	return a, true, nil
}

// AuthorByID returns the author with the given local ID, or ErrNotFound.
func (s *Store) AuthorByID(ctx context.Context, id int64) (types.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors a JOIN dlcs d ON d.id = a.dlc_id WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Author{}, fmt.Errorf("author %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Author{}, fmt.Errorf("querying author %d: %w", id, err)
	}
	return a, nil
}

// CreateAuthor inserts a, creating its DLC by name when needed, and returns
// the stored author with IDs filled in.
func (s *Store) CreateAuthor(ctx context.Context, a types.Author) (types.Author, error) {
	dlc, err := s.GetOrCreateDLC(ctx, a.DLCName)
	if err != nil {
		return types.Author{}, err
	}
	a.DLCID = dlc.ID
	a.DLCName = dlc.Name

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO authors (dlc_id, email, first_name, last_name, id_hash, registry_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.DLCID, a.Email, a.FirstName, a.LastName, a.IDHash, nullString(a.RegistryID),
	)
	if err != nil {
		return types.Author{}, fmt.Errorf("inserting author %s: %w", a.FullName(), err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return types.Author{}, fmt.Errorf("reading author id: %w", err)
	}
	return a, nil
}
