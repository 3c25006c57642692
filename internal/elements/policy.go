// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"github.com/pdiddy/elements-sync/pkg/types"
)

const (
	policyPath         = `//api:oa-policy`
	policyFinalPath    = `//api:oa-policy/api:final-published-version/api:archiving-allowed`
	policyAcceptedPath = `//api:oa-policy/api:accepted-version/api:archiving-allowed`
	policyEmbargoPath  = `//api:oa-policy/api:embargo-months`
	policyURLPath      = `//api:oa-policy/api:policy-url`
	policyFallbackPath = `//api:oa-policy//api:url`
)

// ParseJournalPolicy extracts the open-access policy fields of a journal
// policies document.
func ParseJournalPolicy(body string) (types.JournalPolicy, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return types.JournalPolicy{}, err
	}
	p := types.JournalPolicy{
		PolicyType:             ExtractAttr(doc, policyPath, "type"),
		FinalVersionAllowed:    ExtractField(doc, policyFinalPath),
		AcceptedVersionAllowed: ExtractField(doc, policyAcceptedPath),
		EmbargoMonths:          ExtractField(doc, policyEmbargoPath),
		PolicyURL:              ExtractField(doc, policyURLPath),
	}
	if p.PolicyURL == "" {
		p.PolicyURL = ExtractField(doc, policyFallbackPath)
	}
	return p, nil
}

// PolicyURL returns the policies endpoint for a registry journal link.
func PolicyURL(journalURL string) string {
	return journalURL + "/policies?detail=full"
}
