// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/pdiddy/elements-sync/pkg/types"
)

// DefaultMinYear is the earliest publication year the import considers.
const DefaultMinYear = 2009

const (
	entryPath        = `//atom:entry`
	entryPaperPath   = `.//api:object[@category="publication"]`
	entryTitlePath   = `.//api:field[@name="title"]/api:text`
	entryJournalPath = `.//api:journal`
	entryDatePath    = `.//api:field[@name="publication-date"]/api:date`
)

// manualFlag builds the path to a boolean field on the manually-sourced record.
func manualFlag(name string) string {
	return `.//api:record[@source-name="manual"]/api:native/api:field[@name="` + name + `"]/api:boolean`
}

// ExclusionRule drops a feed entry when Path matches below the entry and,
// if Value is set, the matched text equals Value.
type ExclusionRule struct {
	Reason string
	Path   string
	Value  string
}

// Matches reports whether the rule excludes entry.
func (r ExclusionRule) Matches(entry *xmlquery.Node) bool {
	n := Find(entry, r.Path)
	if n == nil {
		return false
	}
	if r.Value == "" {
		return true
	}
	return strings.TrimSpace(n.InnerText()) == r.Value
}

// DefaultExclusionRules are evaluated in order; the first match wins.
var DefaultExclusionRules = []ExclusionRule{
	{Reason: "do not request", Path: manualFlag("c-do-not-request"), Value: "true"},
	{Reason: "author opted out", Path: manualFlag("c-optout"), Value: "true"},
	{Reason: "already received", Path: manualFlag("c-received"), Value: "true"},
	{Reason: "already requested", Path: manualFlag("c-requested"), Value: "true"},
	{Reason: "library status already set", Path: `.//api:library-status`},
}

// FeedFilter selects which feed entries become candidates.
type FeedFilter struct {
	Rules []ExclusionRule

	// MinYear drops entries whose publication year is earlier. Entries
	// without a parseable date are kept.
	MinYear int
}

// DefaultFeedFilter returns the standard rule table and year cutoff.
func DefaultFeedFilter() FeedFilter {
	return FeedFilter{Rules: DefaultExclusionRules, MinYear: DefaultMinYear}
}

// Exclusion records a feed entry that the filter dropped.
type Exclusion struct {
	PaperID string
	Reason  string
}

// Excluded returns the reason entry is dropped, if any.
func (f FeedFilter) Excluded(entry *xmlquery.Node) (string, bool) {
	for _, r := range f.Rules {
		if r.Matches(entry) {
			return r.Reason, true
		}
	}
	if f.MinYear > 0 {
		if year, err := strconv.Atoi(YearOf(PubDate(Find(entry, entryDatePath)))); err == nil && year < f.MinYear {
			return "published before " + strconv.Itoa(f.MinYear), true
		}
	}
	return "", false
}

// ParseAuthorPublications walks every entry of every feed page in order
// and returns stubs for the entries that pass the filter, plus the entries
// it dropped.
func (f FeedFilter) ParseAuthorPublications(pages []string) ([]types.CandidateStub, []Exclusion, error) {
	var stubs []types.CandidateStub
	var excluded []Exclusion
	for _, page := range pages {
		doc, err := ParseDocument(page)
		if err != nil {
			return nil, nil, err
		}
		for _, entry := range FindAll(doc, entryPath) {
			id := ExtractAttr(entry, entryPaperPath, "id")
			if id == "" {
				continue
			}
			if reason, ok := f.Excluded(entry); ok {
				excluded = append(excluded, Exclusion{PaperID: id, Reason: reason})
				continue
			}
			stubs = append(stubs, types.CandidateStub{
				ID:         id,
				Title:      ExtractField(entry, entryTitlePath),
				JournalURL: ExtractAttr(entry, entryJournalPath, "href"),
			})
		}
	}
	return stubs, excluded, nil
}

// ParseAuthorPublications applies the default filter.
func ParseAuthorPublications(pages []string) ([]types.CandidateStub, error) {
	stubs, _, err := DefaultFeedFilter().ParseAuthorPublications(pages)
	return stubs, err
}
