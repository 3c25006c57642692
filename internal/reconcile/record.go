// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// Storage is the persistence the reconciler reads and mutates.
type Storage interface {
	AuthorByHash(ctx context.Context, hash string) (types.Author, bool, error)
	AuthorByID(ctx context.Context, id int64) (types.Author, error)
	CreateAuthor(ctx context.Context, a types.Author) (types.Author, error)

	RecordFor(ctx context.Context, authorID int64, paperID string) (types.Record, bool, error)
	PaperRequested(ctx context.Context, paperID string) (bool, error)
	DuplicateRecords(ctx context.Context, authorID int64, citation, paperID string) ([]int64, error)
	SaveRecord(ctx context.Context, r types.Record) (types.Record, error)
}

// Duplicates returns the IDs of the author's records that carry the same
// citation as c under a different paper ID.
func Duplicates(ctx context.Context, st Storage, author types.Author, c types.Candidate) ([]int64, error) {
	return st.DuplicateRecords(ctx, author.ID, EffectiveCitation(author, c), c.PaperID)
}

// GetOrCreateFromData stores c as the author's record for c.PaperID. A new
// record is created with a synthesized citation when c has none. An
// existing record is overwritten only when its publisher, acquisition
// method, DOI, or citation drifted; a blank incoming citation is compared
// as its synthesized form so it never blanks a stored one.
func GetOrCreateFromData(ctx context.Context, st Storage, author types.Author, c types.Candidate) (types.Record, types.OutcomeStatus, error) {
	incoming := types.Record{
		AuthorID:          author.ID,
		PaperID:           c.PaperID,
		Publisher:         strings.TrimSpace(c.Publisher),
		AcquisitionMethod: c.AcquisitionMethod,
		DOI:               strings.TrimSpace(c.DOI),
		Citation:          EffectiveCitation(author, c),
		Message:           strings.TrimSpace(c.Message),
	}

	existing, ok, err := st.RecordFor(ctx, author.ID, c.PaperID)
	if err != nil {
		return types.Record{}, "", err
	}

	if ok && !drifted(existing, incoming) {
		return existing, types.OutcomeUnchanged, nil
	}

	saved, err := st.SaveRecord(ctx, incoming)
	if err != nil {
		return types.Record{}, "", fmt.Errorf("saving record %s: %w", c.PaperID, err)
	}
	if ok {
		return saved, types.OutcomeUpdated, nil
	}
	return saved, types.OutcomeImported, nil
}

func drifted(stored, incoming types.Record) bool {
	return stored.Publisher != incoming.Publisher ||
		stored.AcquisitionMethod != incoming.AcquisitionMethod ||
		stored.DOI != incoming.DOI ||
		stored.Citation != incoming.Citation
}
