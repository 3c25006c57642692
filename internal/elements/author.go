// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"github.com/pdiddy/elements-sync/pkg/types"
)

const (
	userObjectPath   = `//api:object[@category="user"]`
	emailPath        = `//api:object[@category="user"]/api:email-address`
	firstNamePath    = `//api:object[@category="user"]/api:first-name`
	lastNamePath     = `//api:object[@category="user"]/api:last-name`
	primaryGroupPath = `//api:object[@category="user"]/api:primary-group-descriptor`
)

// ParseAuthor extracts author identity from a registry user document. The
// institutional ID is the proprietary-id attribute of the user object and
// the registry ID is its id attribute.
func ParseAuthor(body string) (types.AuthorRecord, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return types.AuthorRecord{}, err
	}
	return types.AuthorRecord{
		Email:           ExtractField(doc, emailPath),
		FirstName:       ExtractField(doc, firstNamePath),
		LastName:        ExtractField(doc, lastNamePath),
		InstitutionalID: ExtractAttr(doc, userObjectPath, "proprietary-id"),
		RegistryID:      ExtractAttr(doc, userObjectPath, "id"),
		DLCName:         ExtractField(doc, primaryGroupPath),
	}, nil
}
