// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/elements-sync/internal/elements"
	"github.com/pdiddy/elements-sync/pkg/types"
)

// CreateCitation builds a citation from bibliographic fields:
//
//	{Last}, {F}. ({YYYY}). {Title}. {Journal}, {Volume}({Issue}). doi:{DOI}
//
// The year appears only when the publication date is an 8-digit string,
// the volume and issue only when both are present, and the DOI only when
// present. The result depends on nothing but its inputs.
func CreateCitation(author types.Author, c types.Candidate) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(author.LastName))
	b.WriteString(", ")
	b.WriteString(initial(author.FirstName))
	b.WriteString(". ")

	if year := elements.YearOf(c.PubDate); year != "" {
		b.WriteString("(" + year + "). ")
	}

	b.WriteString(strings.TrimSpace(c.Title))
	b.WriteString(". ")
	b.WriteString(strings.TrimSpace(c.Journal))

	volume, issue := strings.TrimSpace(c.Volume), strings.TrimSpace(c.Issue)
	if volume != "" && issue != "" {
		b.WriteString(", " + volume + "(" + issue + ")")
	}
	b.WriteString(".")

	if doi := strings.TrimSpace(c.DOI); doi != "" {
		b.WriteString(" doi:" + doi)
	}
	return b.String()
}

// EffectiveCitation returns the upstream citation, or a synthesized one
// when the upstream citation is blank.
func EffectiveCitation(author types.Author, c types.Candidate) string {
	if citation := strings.TrimSpace(c.Citation); citation != "" {
		return citation
	}
	return CreateCitation(author, c)
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}
