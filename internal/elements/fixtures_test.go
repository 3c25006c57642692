// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package elements

import (
	"fmt"
	"sort"
	"strings"
)

const sampleAuthorXML = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:api="http://www.symplectic.co.uk/publications/api">
  <title type="text">User</title>
  <entry>
    <title type="text">Fermi, Enrico</title>
    <api:object category="user" id="98765" proprietary-id="912345678" username="efermi">
      <api:is-current-staff>true</api:is-current-staff>
      <api:last-name>Fermi</api:last-name>
      <api:first-name>Enrico</api:first-name>
      <api:email-address>efermi@example.edu</api:email-address>
      <api:primary-group-descriptor>Physics</api:primary-group-descriptor>
    </api:object>
  </entry>
</feed>`

// feedEntry describes one author-publication relationship in a feed fixture.
type feedEntry struct {
	id            string
	title         string
	year          string
	journalHref   string
	flags         map[string]string
	libraryStatus bool
}

func (e feedEntry) xml() string {
	var b strings.Builder
	b.WriteString(`<entry><api:relationship id="r` + e.id + `" type="publication-user-authorship">`)
	b.WriteString(`<api:related direction="from">`)
	b.WriteString(`<api:object category="publication" id="` + e.id + `">`)
	b.WriteString(`<api:records><api:record format="native" id="rec` + e.id + `" source-name="manual"><api:native>`)
	b.WriteString(`<api:field name="title" type="text"><api:text>` + e.title + `</api:text></api:field>`)
	if e.year != "" {
		b.WriteString(`<api:field name="publication-date" type="date"><api:date><api:day>15</api:day><api:month>8</api:month><api:year>` + e.year + `</api:year></api:date></api:field>`)
	}
	keys := make([]string, 0, len(e.flags))
	for k := range e.flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(`<api:field name="` + k + `" type="boolean"><api:boolean>` + e.flags[k] + `</api:boolean></api:field>`)
	}
	b.WriteString(`</api:native></api:record></api:records>`)
	if e.journalHref != "" {
		b.WriteString(`<api:journal href="` + e.journalHref + `" title="Journal"/>`)
	}
	if e.libraryStatus {
		b.WriteString(`<api:library-status status="full-text-requested"/>`)
	}
	b.WriteString(`</api:object></api:related></api:relationship></entry>`)
	return b.String()
}

// feedPage renders a feed page; next is the href of the following page or "".
func feedPage(next string, entries ...feedEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:api="http://www.symplectic.co.uk/publications/api">`)
	b.WriteString(`<api:pagination results-count="2" items-per-page="25">`)
	b.WriteString(`<api:page position="this" href="https://registry.example/this"/>`)
	if next != "" {
		b.WriteString(`<api:page position="next" href="` + next + `"/>`)
	}
	b.WriteString(`</api:pagination>`)
	for _, e := range entries {
		b.WriteString(e.xml())
	}
	b.WriteString(`</feed>`)
	return b.String()
}

// publicationFixture serializes a field mapping as a publication detail
// document. Empty values are omitted from the document.
func publicationFixture(fields map[string]string) string {
	text := func(name, key string) string {
		if fields[key] == "" {
			return ""
		}
		return fmt.Sprintf(`<api:field name="%s" type="text"><api:text>%s</api:text></api:field>`, name, fields[key])
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:api="http://www.symplectic.co.uk/publications/api"><entry>`)
	b.WriteString(`<api:object category="publication" id="` + fields["paper_id"] + `" type="journal-article">`)
	b.WriteString(`<api:records><api:record format="native" id="` + fields["record_id"] + `" source-name="manual"><api:native>`)
	b.WriteString(text("title", "title"))
	b.WriteString(text("journal", "journal"))
	b.WriteString(text("volume", "volume"))
	b.WriteString(text("issue", "issue"))
	b.WriteString(text("doi", "doi"))
	b.WriteString(text("c-citation", "citation"))
	b.WriteString(text("publisher", "publisher"))
	b.WriteString(text("c-method-of-acquisition", "acquisition_method"))
	b.WriteString(text("c-message", "message"))
	if d := fields["pub_date"]; d != "" {
		b.WriteString(fmt.Sprintf(`<api:field name="publication-date" type="date"><api:date><api:day>%s</api:day><api:month>%s</api:month><api:year>%s</api:year></api:date></api:field>`,
			d[6:8], d[4:6], d[0:4]))
	}
	b.WriteString(`</api:native></api:record></api:records>`)
	if href := fields["journal_url"]; href != "" {
		b.WriteString(`<api:journal href="` + href + `" title="Journal"/>`)
	}
	b.WriteString(`</api:object></entry></feed>`)
	return b.String()
}

const samplePolicyXML = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:api="http://www.symplectic.co.uk/publications/api">
  <entry>
    <api:object category="journal" id="4242">
      <api:oa-policy type="publisher">
        <api:final-published-version>
          <api:archiving-allowed>true</api:archiving-allowed>
        </api:final-published-version>
        <api:accepted-version>
          <api:archiving-allowed>true</api:archiving-allowed>
        </api:accepted-version>
        <api:embargo-months>6</api:embargo-months>
        <api:policy-url>https://publisher.example/oa</api:policy-url>
      </api:oa-policy>
    </api:object>
  </entry>
</feed>`
