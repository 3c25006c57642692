// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile imports an author's registry publications into local
// storage. Each candidate publication ends as imported, updated, unchanged,
// or rejected with a reason; one bad candidate never aborts the import.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/elements-sync/internal/elements"
	"github.com/pdiddy/elements-sync/internal/registry"
	"github.com/pdiddy/elements-sync/pkg/types"
)

// DefaultConcurrency is the number of authors ImportBatch runs at once.
const DefaultConcurrency = 4

// Registry is the subset of the registry client the importer uses.
type Registry interface {
	Fetch(ctx context.Context, url string) (string, error)
	AuthorURL(authorID string) string
	PublicationURL(paperID string) string
	MaxPages() int
}

// Importer reconciles registry publications against local storage.
type Importer struct {
	reg    Registry
	store  Storage
	cfg    types.ImportConfig
	filter elements.FeedFilter
	logger *slog.Logger

	mu       sync.Mutex
	progress io.Writer
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// WithProgress writes one line per candidate outcome to w.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) { im.progress = w }
}

// WithFeedFilter replaces the default feed exclusion rules.
func WithFeedFilter(f elements.FeedFilter) Option {
	return func(im *Importer) { im.filter = f }
}

// NewImporter returns an importer reading from reg and writing to st.
func NewImporter(reg Registry, st Storage, cfg types.ImportConfig, opts ...Option) *Importer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	filter := elements.DefaultFeedFilter()
	if cfg.MinYear > 0 {
		filter.MinYear = cfg.MinYear
	}
	im := &Importer{
		reg:      reg,
		store:    st,
		cfg:      cfg,
		filter:   filter,
		logger:   slog.Default(),
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportAuthor fetches the registry author document for authorID and
// imports that author's publications.
func (im *Importer) ImportAuthor(ctx context.Context, authorID string) (types.Report, error) {
	authorURL := im.reg.AuthorURL(authorID)
	body, err := im.reg.Fetch(ctx, authorURL)
	if err != nil {
		return types.Report{AuthorID: authorID}, fmt.Errorf("fetching author %s: %w", authorID, err)
	}
	rec, err := elements.ParseAuthor(body)
	if err != nil {
		return types.Report{AuthorID: authorID}, fmt.Errorf("parsing author %s: %w", authorID, err)
	}
	if rec.RegistryID == "" {
		rec.RegistryID = authorID
	}
	return im.ImportForAuthor(ctx, authorURL, rec, 0)
}

// ImportForAuthor imports the publication feed under authorURL. The local
// author is localAuthorID when non-zero, otherwise it is resolved from
// seed. Network failures fetching the feed abort the import; everything
// after that is reported per publication ID.
func (im *Importer) ImportForAuthor(ctx context.Context, authorURL string, seed types.AuthorRecord, localAuthorID int64) (types.Report, error) {
	report := types.Report{RunID: uuid.NewString(), AuthorID: seed.RegistryID}
	logger := im.logger.With("run_id", report.RunID, "author", authorURL)

	var (
		author    types.Author
		authorErr error
	)
	if localAuthorID != 0 {
		author, authorErr = im.store.AuthorByID(ctx, localAuthorID)
	} else {
		author, authorErr = ResolveAuthor(ctx, im.store, im.cfg.AuthorSalt, seed)
	}
	if authorErr != nil && !errors.Is(authorErr, ErrAuthorIncomplete) {
		return report, fmt.Errorf("resolving author: %w", authorErr)
	}

	pages, err := registry.NewPager(im.reg, registry.AuthorPublicationsURL(authorURL), im.reg.MaxPages()).Collect(ctx)
	if err != nil {
		return report, fmt.Errorf("fetching publication feed: %w", err)
	}
	stubs, excluded, err := im.filter.ParseAuthorPublications(pages)
	if err != nil {
		return report, fmt.Errorf("parsing publication feed: %w", err)
	}
	logger.Info("publication feed read", "pages", len(pages), "candidates", len(stubs), "excluded", len(excluded))
	for _, ex := range excluded {
		logger.Debug("feed entry excluded", "paper_id", ex.PaperID, "reason", ex.Reason)
	}

	for _, stub := range stubs {
		var o types.Outcome
		if authorErr != nil {
			o = rejected(stub.ID, authorErr.Error())
		} else if o, err = im.importCandidate(ctx, logger, author, stub); err != nil {
			return report, err
		}
		report.Add(o)
		im.printOutcome(o)
	}

	logger.Info("author import finished", "summary", report.Summary())
	return report, nil
}

// importCandidate runs one stub through the gates. Only storage failures
// are returned as errors.
func (im *Importer) importCandidate(ctx context.Context, logger *slog.Logger, author types.Author, stub types.CandidateStub) (types.Outcome, error) {
	logger = logger.With("paper_id", stub.ID)

	body, err := im.reg.Fetch(ctx, im.reg.PublicationURL(stub.ID))
	if err != nil {
		logger.Warn("publication fetch failed", "error", err)
		return rejected(stub.ID, "could not fetch publication data: "+err.Error()), nil
	}
	c, err := elements.ParsePublication(body)
	if err != nil {
		logger.Warn("publication parse failed", "error", err)
		return rejected(stub.ID, "could not parse publication data: "+err.Error()), nil
	}
	c.PaperID = stub.ID
	if blank(c.Title) {
		c.Title = stub.Title
	}
	if blank(c.JournalURL) {
		c.JournalURL = stub.JournalURL
	}

	if !blank(c.JournalURL) {
		im.attachPolicy(ctx, logger, &c)
	}
	c.AcquisitionMethod = DeriveAcquisitionMethod(c)

	if missing := MissingData(author, c); missing != nil {
		return rejected(c.PaperID, "missing required data: "+strings.Join(missing, ", ")), nil
	}

	requested, err := im.store.PaperRequested(ctx, c.PaperID)
	if err != nil {
		return types.Outcome{}, err
	}
	if requested {
		return rejected(c.PaperID, fmt.Sprintf(
			"already requested: publication #%s by %s has already been requested from a coauthor", c.PaperID, author.FullName())), nil
	}

	dups, err := Duplicates(ctx, im.store, author, c)
	if err != nil {
		return types.Outcome{}, err
	}
	if len(dups) > 0 {
		o := rejected(c.PaperID, "duplicates existing record(s) "+joinIDs(dups))
		o.Duplicates = dups
		return o, nil
	}

	if reason := RecordNotCreatable(author, c); reason != "" {
		return rejected(c.PaperID, "cannot create record: "+reason), nil
	}

	_, status, err := GetOrCreateFromData(ctx, im.store, author, c)
	if err != nil {
		return types.Outcome{}, err
	}
	return types.Outcome{PaperID: c.PaperID, Status: status}, nil
}

// attachPolicy fetches the journal policy. Failures are logged and the
// candidate continues without one.
func (im *Importer) attachPolicy(ctx context.Context, logger *slog.Logger, c *types.Candidate) {
	body, err := im.reg.Fetch(ctx, elements.PolicyURL(c.JournalURL))
	if err != nil {
		logger.Warn("journal policy fetch failed", "journal", c.JournalURL, "error", err)
		return
	}
	policy, err := elements.ParseJournalPolicy(body)
	if err != nil {
		logger.Warn("journal policy parse failed", "journal", c.JournalURL, "error", err)
		return
	}
	if !policy.IsZero() {
		c.Policy = &policy
	}
}

func (im *Importer) printOutcome(o types.Outcome) {
	im.mu.Lock()
	defer im.mu.Unlock()
	fmt.Fprintf(im.progress, "%-9s %s", o.Status, o.PaperID)
	if o.Reason != "" {
		fmt.Fprintf(im.progress, ": %s", o.Reason)
	}
	fmt.Fprintln(im.progress)
}

// BatchResult is the outcome of one author in ImportBatch.
type BatchResult struct {
	AuthorID string
	Report   types.Report
	Err      error
}

// ImportBatch imports several registry authors concurrently, at most
// cfg.Concurrency at a time. Results keep the order of authorIDs; a failed
// author does not stop the others.
func (im *Importer) ImportBatch(ctx context.Context, authorIDs []string) []BatchResult {
	results := make([]BatchResult, len(authorIDs))

	var g errgroup.Group
	g.SetLimit(im.cfg.Concurrency)
	for i, id := range authorIDs {
		g.Go(func() error {
			report, err := im.ImportAuthor(ctx, id)
			results[i] = BatchResult{AuthorID: id, Report: report, Err: err}
			if err != nil {
				im.logger.Error("author import failed", "author_id", id, "error", err)
			}
			return nil
		})
	}
	g.Wait()
	return results
}

func rejected(paperID, reason string) types.Outcome {
	return types.Outcome{PaperID: paperID, Status: types.OutcomeRejected, Reason: reason}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
