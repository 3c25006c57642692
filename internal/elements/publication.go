// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"github.com/pdiddy/elements-sync/pkg/types"
)

// textField builds the path to the text value of a named native field.
func textField(name string) string {
	return `//api:field[@name="` + name + `"]/api:text`
}

var (
	pubObjectPath  = `//api:object[@category="publication"]`
	pubRecordPath  = `//api:object[@category="publication"]//api:record`
	pubDatePath    = `//api:field[@name="publication-date"]/api:date`
	pubJournalPath = `//api:object[@category="publication"]/api:journal`

	pubDOIPath       = textField("doi")
	pubCitationPath  = textField("c-citation")
	pubPublisherPath = textField("publisher")
	pubMethodPath    = textField("c-method-of-acquisition")
	pubMessagePath   = textField("c-message")
	pubTitlePath     = textField("title")
	pubJournalTitle  = textField("journal")
	pubVolumePath    = textField("volume")
	pubIssuePath     = textField("issue")
)

// ParsePublication extracts a candidate from a publication detail
// document. Fields the document does not carry are left empty.
func ParsePublication(body string) (types.Candidate, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return types.Candidate{}, err
	}
	return types.Candidate{
		PaperID:           ExtractAttr(doc, pubObjectPath, "id"),
		RecordID:          ExtractAttr(doc, pubRecordPath, "id"),
		Title:             ExtractField(doc, pubTitlePath),
		Journal:           ExtractField(doc, pubJournalTitle),
		Volume:            ExtractField(doc, pubVolumePath),
		Issue:             ExtractField(doc, pubIssuePath),
		PubDate:           PubDate(Find(doc, pubDatePath)),
		DOI:               ExtractField(doc, pubDOIPath),
		AcquisitionMethod: types.AcquisitionMethod(ExtractField(doc, pubMethodPath)),
		Citation:          ExtractField(doc, pubCitationPath),
		Publisher:         ExtractField(doc, pubPublisherPath),
		Message:           ExtractField(doc, pubMessagePath),
		JournalURL:        ExtractAttr(doc, pubJournalPath, "href"),
	}, nil
}
