// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/elements-sync/pkg/types"
)

var enrico = types.Author{FirstName: "Enrico", LastName: "Fermi"}

// --- citation ---

func TestCreateCitation(t *testing.T) {
	tests := []struct {
		name string
		c    types.Candidate
		want string
	}{
		{
			name: "year and journal only",
			c:    types.Candidate{Title: "On the theory of beta rays", Journal: "Some journal or other", PubDate: "20160815"},
			want: "Fermi, E. (2016). On the theory of beta rays. Some journal or other.",
		},
		{
			name: "all fields",
			c: types.Candidate{Title: "T", Journal: "J", PubDate: "19340101",
				Volume: "12", Issue: "3", DOI: "10.1007/BF01351864"},
			want: "Fermi, E. (1934). T. J, 12(3). doi:10.1007/BF01351864",
		},
		{
			name: "no date",
			c:    types.Candidate{Title: "T", Journal: "J"},
			want: "Fermi, E. T. J.",
		},
		{
			name: "malformed date is treated as absent",
			c:    types.Candidate{Title: "T", Journal: "J", PubDate: "2016-08"},
			want: "Fermi, E. T. J.",
		},
		{
			name: "volume without issue is omitted",
			c:    types.Candidate{Title: "T", Journal: "J", Volume: "12"},
			want: "Fermi, E. T. J.",
		},
		{
			name: "issue without volume is omitted",
			c:    types.Candidate{Title: "T", Journal: "J", Issue: "3", DOI: "10.1/x"},
			want: "Fermi, E. T. J. doi:10.1/x",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CreateCitation(enrico, tc.c)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, ", ()")
			assert.False(t, strings.HasSuffix(got, "doi:"))
			assert.Equal(t, got, CreateCitation(enrico, tc.c), "deterministic")
		})
	}
}

func TestEffectiveCitation(t *testing.T) {
	c := types.Candidate{Title: "T", Journal: "J", Citation: "  Upstream citation.  "}
	assert.Equal(t, "Upstream citation.", EffectiveCitation(enrico, c))
	c.Citation = " "
	assert.Equal(t, "Fermi, E. T. J.", EffectiveCitation(enrico, c))
}

// --- gates ---

func TestMissingData(t *testing.T) {
	assert.True(t, IsDataValid(enrico, types.Candidate{Citation: "C"}))
	assert.True(t, IsDataValid(enrico, types.Candidate{Title: "T", Journal: "J"}))

	missing := MissingData(enrico, types.Candidate{Title: "T"})
	assert.Equal(t, []string{"citation", "journal"}, missing)

	missing = MissingData(types.Author{LastName: "Fermi"}, types.Candidate{})
	assert.Equal(t, []string{"citation", "first name", "title", "journal"}, missing)
}

func TestRecordNotCreatable(t *testing.T) {
	ok := types.Candidate{Publisher: "P", AcquisitionMethod: types.AcqManuscript, Citation: "C"}
	tests := []struct {
		name   string
		mutate func(*types.Candidate)
		want   string
	}{
		{"creatable", func(*types.Candidate) {}, ""},
		{"no publisher", func(c *types.Candidate) { c.Publisher = "" }, "no publisher name"},
		{"no method", func(c *types.Candidate) { c.AcquisitionMethod = "" }, "no acquisition method"},
		{"unknown method", func(c *types.Candidate) { c.AcquisitionMethod = "CARRIER_PIGEON" }, `unrecognized acquisition method "CARRIER_PIGEON"`},
		{"fpv without doi", func(c *types.Candidate) { c.AcquisitionMethod = types.AcqFPV }, "acquisition method RECRUIT_FROM_AUTHOR_FPV requires a DOI"},
		{"fpv with doi", func(c *types.Candidate) { c.AcquisitionMethod = types.AcqFPV; c.DOI = "10.1/x" }, ""},
		{"no citation material", func(c *types.Candidate) { c.Citation = ""; c.Title = "T" }, "no citation and missing journal"},
		{"synthesizable citation", func(c *types.Candidate) { c.Citation = ""; c.Title = "T"; c.Journal = "J" }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := ok
			tc.mutate(&c)
			assert.Equal(t, tc.want, RecordNotCreatable(enrico, c))
			assert.Equal(t, tc.want == "", IsRecordCreatable(enrico, c))
		})
	}
}

func TestDeriveAcquisitionMethod(t *testing.T) {
	allowed := &types.JournalPolicy{FinalVersionAllowed: "true"}
	denied := &types.JournalPolicy{FinalVersionAllowed: "false"}

	assert.Equal(t, types.AcqDownload, DeriveAcquisitionMethod(types.Candidate{AcquisitionMethod: types.AcqDownload, Policy: allowed}))
	assert.Equal(t, types.AcqFPV, DeriveAcquisitionMethod(types.Candidate{DOI: "10.1/x", Policy: allowed}))
	assert.Equal(t, types.AcqManuscript, DeriveAcquisitionMethod(types.Candidate{Policy: allowed}))
	assert.Equal(t, types.AcqManuscript, DeriveAcquisitionMethod(types.Candidate{DOI: "10.1/x", Policy: denied}))
	assert.Equal(t, types.AcquisitionMethod(""), DeriveAcquisitionMethod(types.Candidate{}))
}

// --- authors ---

func TestAuthorHash(t *testing.T) {
	h := AuthorHash("salt", "912345678")
	assert.Len(t, h, 64)
	assert.Equal(t, h, AuthorHash("salt", " 912345678 "))
	assert.NotEqual(t, h, AuthorHash("other", "912345678"))
	assert.NotContains(t, h, "912345678")
}

func TestResolveAuthor(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created, err := ResolveAuthor(ctx, s, "pepper", fermi)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, AuthorHash("pepper", fermi.InstitutionalID), created.IDHash)

	// An existing author is found even when the registry record is sparse.
	sparse := types.AuthorRecord{InstitutionalID: fermi.InstitutionalID}
	found, err := ResolveAuthor(ctx, s, "pepper", sparse)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	incomplete := bohr
	incomplete.Email = ""
	_, err = ResolveAuthor(ctx, s, "pepper", incomplete)
	assert.ErrorIs(t, err, ErrAuthorIncomplete)
	assert.Contains(t, err.Error(), "email")
}

// --- import ---

func TestImportAuthor_SynthesizesCitation(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "100", title: "Neutron capture", year: "2016"})
	f.addPublication(pubFields{id: "100", title: "Neutron capture", journal: "Some journal or other",
		publisher: "Elsevier", method: string(types.AcqManuscript), year: "2016", month: "08", day: "15"})

	s := testStore(t)
	var progress bytes.Buffer
	im := newTestImporter(t, f, s, WithProgress(&progress))

	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, map[string]string{"100": "imported"}, report.Messages())
	assert.Contains(t, progress.String(), "imported  100")

	author, ok, err := s.AuthorByHash(context.Background(), AuthorHash("pepper", fermi.InstitutionalID))
	require.NoError(t, err)
	require.True(t, ok)
	rec, ok, err := s.RecordFor(context.Background(), author.ID, "100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fermi, E. (2016). Neutron capture. Some journal or other.", rec.Citation)
	assert.Equal(t, "Elsevier", rec.Publisher)
}

func TestImportAuthor_Idempotent(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "101", title: "B", year: "2017"},
	)
	f.addPublication(pubFields{id: "100", title: "A", journal: "J", publisher: "P", method: string(types.AcqManuscript), year: "2016"})
	f.addPublication(pubFields{id: "101", citation: "Fermi, E. B.", publisher: "P", method: string(types.AcqDownload)})

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	first, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count(types.OutcomeImported))

	second, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"100": "unchanged", "101": "unchanged"}, second.Messages())
	assert.NotEqual(t, first.RunID, second.RunID)

	n, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportAuthor_UpdatesOnDrift(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "100", title: "A", year: "2016"})
	f.addPublication(pubFields{id: "100", citation: "C.", publisher: "Old", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	_, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)

	f.addPublication(pubFields{id: "100", citation: "C.", publisher: "New", method: string(types.AcqManuscript)})
	report, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "updated", report.Messages()["100"])

	// Blank upstream citation is compared in synthesized form.
	f.addPublication(pubFields{id: "100", title: "A", journal: "J", publisher: "New", method: string(types.AcqManuscript)})
	report, err = im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "updated", report.Messages()["100"])

	report, err = im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", report.Messages()["100"])

	author, _, err := s.AuthorByHash(ctx, AuthorHash("pepper", fermi.InstitutionalID))
	require.NoError(t, err)
	rec, _, err := s.RecordFor(ctx, author.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, "Fermi, E. A. J.", rec.Citation)
}

func TestImportAuthor_DuplicateCitationSameAuthor(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "200", title: "A again", year: "2016"},
	)
	f.addPublication(pubFields{id: "100", citation: "Shared citation.", publisher: "P", method: string(types.AcqManuscript)})
	f.addPublication(pubFields{id: "200", citation: "Shared citation.", publisher: "P", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	report, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, "imported", report.Messages()["100"])
	o, ok := report.Get("200")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeRejected, o.Status)

	author, _, err := s.AuthorByHash(ctx, AuthorHash("pepper", fermi.InstitutionalID))
	require.NoError(t, err)
	first, _, err := s.RecordFor(ctx, author.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID}, o.Duplicates)
	assert.Contains(t, o.Reason, "duplicates existing record(s)")
}

func TestImportAuthor_SameCitationDifferentAuthors(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "100", title: "A", year: "2016"})
	f.addAuthor("2", bohr, feedEntry{id: "200", title: "A", year: "2016"})
	f.addPublication(pubFields{id: "100", citation: "Shared citation.", publisher: "P", method: string(types.AcqManuscript)})
	f.addPublication(pubFields{id: "200", citation: "Shared citation.", publisher: "P", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	r1, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	r2, err := im.ImportAuthor(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "imported", r1.Messages()["100"])
	assert.Equal(t, "imported", r2.Messages()["200"])
}

func TestImportAuthor_AlreadyRequestedUnderCoauthor(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "500", title: "Joint paper", year: "2018"})
	f.addAuthor("2", bohr, feedEntry{id: "500", title: "Joint paper", year: "2018"})
	f.addPublication(pubFields{id: "500", citation: "Fermi, E. and Bohr, N. Joint paper.", publisher: "P", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	_, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	author, _, err := s.AuthorByHash(ctx, AuthorHash("pepper", fermi.InstitutionalID))
	require.NoError(t, err)
	rec, _, err := s.RecordFor(ctx, author.ID, "500")
	require.NoError(t, err)
	_, err = s.MarkRecordSent(ctx, rec.ID, time.Now())
	require.NoError(t, err)

	report, err := im.ImportAuthor(ctx, "2")
	require.NoError(t, err)
	o, ok := report.Get("500")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeRejected, o.Status)
	assert.Contains(t, o.Reason, "already requested")
	assert.Contains(t, o.Reason, "Niels Bohr")

	n, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportAuthor_IncompleteAuthorRejectsEveryCandidate(t *testing.T) {
	f := newFakeRegistry(t)
	noDLC := fermi
	noDLC.DLCName = ""
	f.addAuthor("1", noDLC,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "101", title: "B", year: "2016"},
	)

	s := testStore(t)
	im := newTestImporter(t, f, s)

	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.Equal(t, types.OutcomeRejected, o.Status)
		assert.Contains(t, o.Reason, "author missing required information")
	}
	f.mu.Lock()
	assert.Zero(t, f.hits["/publications/100"], "no detail fetch for a rejected author")
	f.mu.Unlock()
}

func TestImportAuthor_MissingDataAndNotCreatable(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "101", title: "B", year: "2016"},
	)
	f.addPublication(pubFields{id: "100", publisher: "P", method: string(types.AcqManuscript)})
	f.addPublication(pubFields{id: "101", citation: "C.", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)

	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	// The feed title fills in for the missing detail title.
	assert.Equal(t, "missing required data: citation, journal", report.Messages()["100"])
	assert.Equal(t, "cannot create record: no publisher name", report.Messages()["101"])
}

func TestImportAuthor_PublicationFetchFailureRejectsOnlyThatCandidate(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "101", title: "B", year: "2016"},
	)
	f.fail("/publications/100", http.StatusForbidden)
	f.addPublication(pubFields{id: "101", citation: "C.", publisher: "P", method: string(types.AcqManuscript)})

	s := testStore(t)
	im := newTestImporter(t, f, s)

	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	assert.Contains(t, report.Messages()["100"], "could not fetch publication data")
	assert.Equal(t, "imported", report.Messages()["101"])
}

func TestImportAuthor_AuthorFetchFailureAborts(t *testing.T) {
	f := newFakeRegistry(t)
	f.fail("/users/1", http.StatusNotFound)

	im := newTestImporter(t, f, testStore(t))
	_, err := im.ImportAuthor(context.Background(), "1")
	assert.Error(t, err)
}

func TestImportAuthor_FeedFailureAborts(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi)
	f.fail("/users/1/publications", http.StatusInternalServerError)

	im := newTestImporter(t, f, testStore(t))
	_, err := im.ImportAuthor(context.Background(), "1")
	require.Error(t, err)
	f.mu.Lock()
	assert.Equal(t, 3, f.hits["/users/1/publications"])
	f.mu.Unlock()
}

func TestImportAuthor_FeedExclusions(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "Old", year: "2005"},
		feedEntry{id: "101", title: "Opted out", year: "2016", flags: []string{"c-optout"}},
		feedEntry{id: "102", title: "Kept", year: "2016"},
	)
	f.addPublication(pubFields{id: "102", citation: "C.", publisher: "P", method: string(types.AcqManuscript)})

	im := newTestImporter(t, f, testStore(t))
	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"102": "imported"}, report.Messages())
}

func TestImportAuthor_FollowsFeedPages(t *testing.T) {
	f := newFakeRegistry(t)
	f.set("/users/1", authorXML("1", fermi))
	f.set("/users/1/publications", feedXML(f.server.URL+"/feed/2", feedEntry{id: "100", title: "A", year: "2016"}))
	f.set("/feed/2", feedXML("", feedEntry{id: "101", title: "B", year: "2016"}))
	f.addPublication(pubFields{id: "100", citation: "A.", publisher: "P", method: string(types.AcqManuscript)})
	f.addPublication(pubFields{id: "101", citation: "B.", publisher: "P", method: string(types.AcqManuscript)})

	im := newTestImporter(t, f, testStore(t))
	report, err := im.ImportAuthor(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "100", report.Outcomes[0].PaperID)
	assert.Equal(t, "101", report.Outcomes[1].PaperID)
}

func TestImportAuthor_PolicyDerivesMethod(t *testing.T) {
	f := newFakeRegistry(t)
	journal := f.server.URL + "/journals/9"
	f.addAuthor("1", fermi,
		feedEntry{id: "100", title: "A", year: "2016"},
		feedEntry{id: "101", title: "B", year: "2016"},
	)
	f.addPublication(pubFields{id: "100", citation: "A.", publisher: "P", doi: "10.1/a", journalURL: journal})
	f.addPublication(pubFields{id: "101", citation: "B.", publisher: "P", journalURL: f.server.URL + "/journals/missing"})
	f.set("/journals/9/policies", policyXML("true"))

	s := testStore(t)
	im := newTestImporter(t, f, s)
	ctx := context.Background()

	report, err := im.ImportAuthor(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "imported", report.Messages()["100"])
	assert.Equal(t, "cannot create record: no acquisition method", report.Messages()["101"])

	author, _, err := s.AuthorByHash(ctx, AuthorHash("pepper", fermi.InstitutionalID))
	require.NoError(t, err)
	rec, _, err := s.RecordFor(ctx, author.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, types.AcqFPV, rec.AcquisitionMethod)
}

func TestImportForAuthor_UsesLocalAuthorID(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "100", title: "A", year: "2016"})
	f.addPublication(pubFields{id: "100", citation: "A.", publisher: "P", method: string(types.AcqManuscript)})

	s := testStore(t)
	ctx := context.Background()
	local, err := ResolveAuthor(ctx, s, "pepper", fermi)
	require.NoError(t, err)

	im := newTestImporter(t, f, s)
	client := f.client(t)
	report, err := im.ImportForAuthor(ctx, client.AuthorURL("1"), types.AuthorRecord{}, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "imported", report.Messages()["100"])

	_, ok, err := s.RecordFor(ctx, local.ID, "100")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImportBatch(t *testing.T) {
	f := newFakeRegistry(t)
	f.addAuthor("1", fermi, feedEntry{id: "100", title: "A", year: "2016"})
	f.addAuthor("2", bohr, feedEntry{id: "200", title: "B", year: "2016"})
	f.fail("/users/3", http.StatusNotFound)
	f.addPublication(pubFields{id: "100", citation: "A.", publisher: "P", method: string(types.AcqManuscript)})
	f.addPublication(pubFields{id: "200", citation: "B.", publisher: "P", method: string(types.AcqManuscript)})

	var progress bytes.Buffer
	im := newTestImporter(t, f, testStore(t), WithProgress(&progress))
	results := im.ImportBatch(context.Background(), []string{"1", "2", "3"})

	require.Len(t, results, 3)
	assert.Equal(t, "1", results[0].AuthorID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "imported", results[0].Report.Messages()["100"])
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "imported", results[1].Report.Messages()["200"])
	assert.Error(t, results[2].Err)
	assert.Equal(t, 2, strings.Count(progress.String(), "imported"))
}
