// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// AcquisitionMethod tags how the library intends to obtain a manuscript.
type AcquisitionMethod string

const (
	AcqManuscript AcquisitionMethod = "RECRUIT_FROM_AUTHOR_MANUSCRIPT"
	AcqFPV        AcquisitionMethod = "RECRUIT_FROM_AUTHOR_FPV"
	AcqDownload   AcquisitionMethod = "INDIVIDUAL_DOWNLOAD"
)

// Recognized reports whether m is one of the known acquisition methods.
func (m AcquisitionMethod) Recognized() bool {
	switch m {
	case AcqManuscript, AcqFPV, AcqDownload:
		return true
	}
	return false
}

// CandidateStub is what survives the publication feed filter: just enough
// to fetch the full publication detail.
type CandidateStub struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// JournalURL is the registry journal link, when the feed carries one.
	JournalURL string `json:"journal_url,omitempty" yaml:"journal_url,omitempty"`
}

// JournalPolicy holds the open-access policy fields of a journal.
type JournalPolicy struct {
	PolicyType string `json:"policy_type" yaml:"policy_type"`

	// FinalVersionAllowed and AcceptedVersionAllowed carry the registry's
	// "true"/"false" text for archiving the publisher PDF and the accepted
	// manuscript.
	FinalVersionAllowed    string `json:"final_version_allowed" yaml:"final_version_allowed"`
	AcceptedVersionAllowed string `json:"accepted_version_allowed" yaml:"accepted_version_allowed"`

	EmbargoMonths string `json:"embargo_months" yaml:"embargo_months"`
	PolicyURL     string `json:"policy_url" yaml:"policy_url"`
}

// AllowsFinalVersion reports whether the publisher permits archiving the
// final published version.
func (p JournalPolicy) AllowsFinalVersion() bool {
	return strings.EqualFold(strings.TrimSpace(p.FinalVersionAllowed), "true")
}

// IsZero reports whether no policy field was found.
func (p JournalPolicy) IsZero() bool {
	return p == JournalPolicy{}
}

// Candidate is a publication pulled from the registry during one import
// pass. Absent fields are empty strings.
type Candidate struct {
	PaperID  string `json:"paper_id" yaml:"paper_id"`
	RecordID string `json:"record_id" yaml:"record_id"`

	Title   string `json:"title" yaml:"title"`
	Journal string `json:"journal" yaml:"journal"`
	Volume  string `json:"volume" yaml:"volume"`
	Issue   string `json:"issue" yaml:"issue"`

	// PubDate is an 8-digit YYYYMMDD string, or empty.
	PubDate string `json:"pub_date" yaml:"pub_date"`

	DOI               string            `json:"doi" yaml:"doi"`
	AcquisitionMethod AcquisitionMethod `json:"acquisition_method" yaml:"acquisition_method"`
	Citation          string            `json:"citation" yaml:"citation"`
	Publisher         string            `json:"publisher" yaml:"publisher"`
	Message           string            `json:"message" yaml:"message"`

	JournalURL string         `json:"journal_url,omitempty" yaml:"journal_url,omitempty"`
	Policy     *JournalPolicy `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// Record is the persisted publication, unique per (AuthorID, PaperID).
// Citation is never blank once stored.
type Record struct {
	ID                int64             `json:"id" yaml:"id"`
	AuthorID          int64             `json:"author_id" yaml:"author_id"`
	PaperID           string            `json:"paper_id" yaml:"paper_id"`
	Publisher         string            `json:"publisher" yaml:"publisher"`
	AcquisitionMethod AcquisitionMethod `json:"acquisition_method" yaml:"acquisition_method"`
	DOI               string            `json:"doi" yaml:"doi"`
	Citation          string            `json:"citation" yaml:"citation"`
	Message           string            `json:"message" yaml:"message"`
	CreatedAt         time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" yaml:"updated_at"`
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
