// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// ErrAuthorIncomplete means the registry author lacks a field required to
// create a local author.
var ErrAuthorIncomplete = errors.New("author missing required information")

// AuthorHash returns the salted SHA-256 hex digest under which an
// institutional ID is stored. The raw ID is never persisted.
func AuthorHash(salt, institutionalID string) string {
	sum := sha256.Sum256([]byte(salt + strings.TrimSpace(institutionalID)))
	return hex.EncodeToString(sum[:])
}

// ResolveAuthor finds the local author for rec by hashed institutional ID,
// creating one when every required field is present. An incomplete record
// that matches no existing author yields ErrAuthorIncomplete.
func ResolveAuthor(ctx context.Context, st Storage, salt string, rec types.AuthorRecord) (types.Author, error) {
	if !blank(rec.InstitutionalID) {
		hash := AuthorHash(salt, rec.InstitutionalID)
		author, ok, err := st.AuthorByHash(ctx, hash)
		if err != nil {
			return types.Author{}, err
		}
		if ok {
			return author, nil
		}
	}

	if missing := rec.MissingFields(); len(missing) > 0 {
		return types.Author{}, fmt.Errorf("%w (%s)", ErrAuthorIncomplete, strings.Join(missing, ", "))
	}

	return st.CreateAuthor(ctx, types.Author{
		DLCName:    strings.TrimSpace(rec.DLCName),
		Email:      strings.TrimSpace(rec.Email),
		FirstName:  strings.TrimSpace(rec.FirstName),
		LastName:   strings.TrimSpace(rec.LastName),
		IDHash:     AuthorHash(salt, rec.InstitutionalID),
		RegistryID: rec.RegistryID,
	})
}
