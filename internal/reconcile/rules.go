// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"
	"strings"

	"github.com/pdiddy/elements-sync/pkg/types"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// missingCitationFields lists the citation-construction fields that are
// blank, in a fixed order.
func missingCitationFields(author types.Author, c types.Candidate) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"first name", author.FirstName},
		{"last name", author.LastName},
		{"title", c.Title},
		{"journal", c.Journal},
	} {
		if blank(f.value) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// MissingData returns the fields that keep a candidate from being valid,
// or nil when it is valid. A candidate is valid when it carries a citation
// or every field needed to build one.
func MissingData(author types.Author, c types.Candidate) []string {
	if !blank(c.Citation) {
		return nil
	}
	missing := missingCitationFields(author, c)
	if len(missing) == 0 {
		return nil
	}
	return append([]string{"citation"}, missing...)
}

// IsDataValid reports whether a candidate has a citation or can have one
// synthesized.
func IsDataValid(author types.Author, c types.Candidate) bool {
	return MissingData(author, c) == nil
}

// RecordNotCreatable returns why a record cannot be created from c, or ""
// when it can.
func RecordNotCreatable(author types.Author, c types.Candidate) string {
	switch {
	case blank(c.Publisher):
		return "no publisher name"
	case !c.AcquisitionMethod.Recognized():
		if blank(string(c.AcquisitionMethod)) {
			return "no acquisition method"
		}
		return fmt.Sprintf("unrecognized acquisition method %q", c.AcquisitionMethod)
	case c.AcquisitionMethod == types.AcqFPV && blank(c.DOI):
		return "acquisition method " + string(types.AcqFPV) + " requires a DOI"
	case blank(c.Citation) && len(missingCitationFields(author, c)) > 0:
		return "no citation and missing " + strings.Join(missingCitationFields(author, c), ", ")
	}
	return ""
}

// IsRecordCreatable reports whether c carries everything a stored record
// needs.
func IsRecordCreatable(author types.Author, c types.Candidate) bool {
	return RecordNotCreatable(author, c) == ""
}

// DeriveAcquisitionMethod picks an acquisition method from the journal
// policy when the registry did not supply one. Publishers that allow
// archiving the final published version are asked for it; everyone else is
// asked for the accepted manuscript. Without a policy it returns "".
func DeriveAcquisitionMethod(c types.Candidate) types.AcquisitionMethod {
	if !blank(string(c.AcquisitionMethod)) {
		return c.AcquisitionMethod
	}
	if c.Policy == nil || c.Policy.IsZero() {
		return ""
	}
	if c.Policy.AllowsFinalVersion() && !blank(c.DOI) {
		return types.AcqFPV
	}
	return types.AcqManuscript
}
