// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// OutcomeStatus is the terminal state of one candidate in an import pass.
type OutcomeStatus string

const (
	OutcomeImported  OutcomeStatus = "imported"
	OutcomeUpdated   OutcomeStatus = "updated"
	OutcomeUnchanged OutcomeStatus = "unchanged"
	OutcomeRejected  OutcomeStatus = "rejected"
)

// Outcome is the result for a single publication ID.
type Outcome struct {
	PaperID string        `json:"paper_id" yaml:"paper_id"`
	Status  OutcomeStatus `json:"status" yaml:"status"`

	// Reason explains a rejection; empty otherwise.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Duplicates lists the record IDs a rejected candidate duplicates.
	Duplicates []int64 `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Message renders the outcome as the human-readable report line.
func (o Outcome) Message() string {
	if o.Status == OutcomeRejected {
		return o.Reason
	}
	return string(o.Status)
}

// Report holds the outcomes of one author import in feed order.
type Report struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	AuthorID string    `json:"author_id" yaml:"author_id"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Add appends an outcome.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Messages returns the per-publication-ID mapping of outcome strings.
func (r Report) Messages() map[string]string {
	m := make(map[string]string, len(r.Outcomes))
	for _, o := range r.Outcomes {
		m[o.PaperID] = o.Message()
	}
	return m
}

// Get returns the outcome for paperID.
func (r Report) Get(paperID string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.PaperID == paperID {
			return o, true
		}
	}
	return Outcome{}, false
}

// Count returns how many outcomes have the given status.
func (r Report) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Summary returns a one-line count of each outcome status.
func (r Report) Summary() string {
	return fmt.Sprintf("imported: %d, updated: %d, unchanged: %d, rejected: %d",
		r.Count(OutcomeImported), r.Count(OutcomeUpdated),
		r.Count(OutcomeUnchanged), r.Count(OutcomeRejected))
}
