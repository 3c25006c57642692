// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/elements-sync/internal/registry"
	"github.com/pdiddy/elements-sync/internal/store"
	"github.com/pdiddy/elements-sync/pkg/types"
)

const feedNS = `xmlns="http://www.w3.org/2005/Atom" xmlns:api="http://www.symplectic.co.uk/publications/api"`

// fakeRegistry serves canned documents by URL path and counts requests.
type fakeRegistry struct {
	mu       sync.Mutex
	docs     map[string]string
	statuses map[string]int
	hits     map[string]int
	server   *httptest.Server
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	f := &fakeRegistry{docs: map[string]string{}, statuses: map[string]int{}, hits: map[string]int{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits[r.URL.Path]++
		if code, ok := f.statuses[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		doc, ok := f.docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(doc))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRegistry) set(path, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = doc
}

func (f *fakeRegistry) fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[path] = status
}

func (f *fakeRegistry) client(t *testing.T) *registry.Client {
	t.Helper()
	c, err := registry.NewClient(types.RegistryConfig{
		Endpoint:    f.server.URL,
		Username:    "u",
		Password:    "p",
		Timeout:     2 * time.Second,
		BackoffBase: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

// addAuthor registers a user document and its single-page publication feed.
func (f *fakeRegistry) addAuthor(id string, a types.AuthorRecord, entries ...feedEntry) {
	f.set("/users/"+id, authorXML(id, a))
	f.set("/users/"+id+"/publications", feedXML("", entries...))
}

// addPublication registers a publication detail document.
func (f *fakeRegistry) addPublication(fields pubFields) {
	f.set("/publications/"+fields.id, fields.xml())
}

func authorXML(id string, a types.AuthorRecord) string {
	elem := func(name, v string) string {
		if v == "" {
			return ""
		}
		return "<api:" + name + ">" + v + "</api:" + name + ">"
	}
	return `<?xml version="1.0" encoding="utf-8"?><feed ` + feedNS + `><entry>` +
		`<api:object category="user" id="` + id + `" proprietary-id="` + a.InstitutionalID + `">` +
		elem("last-name", a.LastName) + elem("first-name", a.FirstName) +
		elem("email-address", a.Email) + elem("primary-group-descriptor", a.DLCName) +
		`</api:object></entry></feed>`
}

type feedEntry struct {
	id    string
	title string
	year  string
	flags []string
}

func feedXML(next string, entries ...feedEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?><feed ` + feedNS + `><api:pagination>`)
	if next != "" {
		b.WriteString(`<api:page position="next" href="` + next + `"/>`)
	}
	b.WriteString(`</api:pagination>`)
	for _, e := range entries {
		b.WriteString(`<entry><api:relationship><api:related><api:object category="publication" id="` + e.id + `">`)
		b.WriteString(`<api:records><api:record source-name="manual"><api:native>`)
		b.WriteString(`<api:field name="title"><api:text>` + e.title + `</api:text></api:field>`)
		if e.year != "" {
			b.WriteString(`<api:field name="publication-date"><api:date><api:year>` + e.year + `</api:year></api:date></api:field>`)
		}
		for _, flag := range e.flags {
			b.WriteString(`<api:field name="` + flag + `"><api:boolean>true</api:boolean></api:field>`)
		}
		b.WriteString(`</api:native></api:record></api:records></api:object></api:related></api:relationship></entry>`)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

type pubFields struct {
	id, title, journal, volume, issue, doi, citation, publisher, method string
	year, month, day                                                  string
	journalURL                                                        string
}

func (p pubFields) xml() string {
	var b strings.Builder
	field := func(name, v string) {
		if v != "" {
			fmt.Fprintf(&b, `<api:field name="%s"><api:text>%s</api:text></api:field>`, name, v)
		}
	}
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?><feed ` + feedNS + `><entry>`)
	b.WriteString(`<api:object category="publication" id="` + p.id + `">`)
	b.WriteString(`<api:records><api:record id="rec-` + p.id + `" source-name="manual"><api:native>`)
	field("title", p.title)
	field("journal", p.journal)
	field("volume", p.volume)
	field("issue", p.issue)
	field("doi", p.doi)
	field("c-citation", p.citation)
	field("publisher", p.publisher)
	field("c-method-of-acquisition", p.method)
	if p.year != "" {
		b.WriteString(`<api:field name="publication-date"><api:date>`)
		if p.day != "" {
			b.WriteString(`<api:day>` + p.day + `</api:day>`)
		}
		if p.month != "" {
			b.WriteString(`<api:month>` + p.month + `</api:month>`)
		}
		b.WriteString(`<api:year>` + p.year + `</api:year></api:date></api:field>`)
	}
	b.WriteString(`</api:native></api:record></api:records>`)
	if p.journalURL != "" {
		b.WriteString(`<api:journal href="` + p.journalURL + `"/>`)
	}
	b.WriteString(`</api:object></entry></feed>`)
	return b.String()
}

func policyXML(finalAllowed string) string {
	return `<?xml version="1.0" encoding="utf-8"?><feed ` + feedNS + `><entry>` +
		`<api:oa-policy type="publisher"><api:final-published-version><api:archiving-allowed>` + finalAllowed +
		`</api:archiving-allowed></api:final-published-version></api:oa-policy></entry></feed>`
}

var fermi = types.AuthorRecord{
	Email:           "efermi@example.edu",
	FirstName:       "Enrico",
	LastName:        "Fermi",
	InstitutionalID: "912345678",
	DLCName:         "Department of Physics",
}

var bohr = types.AuthorRecord{
	Email:           "nbohr@example.edu",
	FirstName:       "Niels",
	LastName:        "Bohr",
	InstitutionalID: "987654321",
	DLCName:         "Department of Physics",
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "sync.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestImporter(t *testing.T, f *fakeRegistry, s *store.Store, opts ...Option) *Importer {
	t.Helper()
	return NewImporter(f.client(t), s, types.ImportConfig{AuthorSalt: "pepper", Concurrency: 2}, opts...)
}
