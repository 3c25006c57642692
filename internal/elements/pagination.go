// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

const (
	nextPagePath = `//api:pagination/api:page[@position="next"]`
	nextAnyPath  = `//*[@position="next"][@href]`
)

// NextPageURL returns the href of the "next" pagination link of a feed
// page, or "" on the last page.
func NextPageURL(body string) (string, error) {
	doc, err := ParseDocument(body)
	if err != nil {
		return "", err
	}
	if href := ExtractAttr(doc, nextPagePath, "href"); href != "" {
		return href, nil
	}
	return ExtractAttr(doc, nextAnyPath, "href"), nil
}
