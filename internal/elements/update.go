// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"encoding/xml"
	"fmt"
	"time"
)

// StatusFullTextRequested is the library status pushed when an email goes out.
const StatusFullTextRequested = "full-text-requested"

type updateObject struct {
	XMLName xml.Name `xml:"http://www.symplectic.co.uk/publications/api update-object"`
	OA      struct {
		LibraryStatus libraryStatus `xml:"library-status"`
	} `xml:"oa"`
}

type libraryStatus struct {
	Status            string    `xml:"status,attr"`
	LastRequestedWhen string    `xml:"last-requested-when"`
	NoteField         noteField `xml:"note-field"`
}

type noteField struct {
	ClearExistingNote bool   `xml:"clear-existing-note,attr"`
	Note              string `xml:"note"`
}

// BuildStatusUpdate returns the update-object document that marks a
// publication as full text requested by username at now.
func BuildStatusUpdate(username string, now time.Time) ([]byte, error) {
	var doc updateObject
	doc.OA.LibraryStatus = libraryStatus{
		Status:            StatusFullTextRequested,
		LastRequestedWhen: now.UTC().Format(time.RFC3339),
		NoteField: noteField{
			ClearExistingNote: true,
			Note: fmt.Sprintf("Library status changed to Full text requested on %s by %s.",
				now.Format("2 January 2006"), username),
		},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling status update: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
