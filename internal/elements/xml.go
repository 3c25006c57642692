// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package elements parses Elements registry XML into plain domain values
// and builds the status-update documents sent back to the registry.
//
// Field lookups follow an "absent is normal" policy: a query that matches
// nothing yields the empty string. A document that is not well-formed XML
// is an error.
package elements

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Namespace URIs used by the registry API.
const (
	AtomNS = "http://www.w3.org/2005/Atom"
	APINS  = "http://www.symplectic.co.uk/publications/api"
)

// namespaces maps the query prefixes to their URIs. Every path passed to
// ExtractField is compiled against this map.
var namespaces = map[string]string{
	"atom": AtomNS,
	"api":  APINS,
}

// ErrNoRootElement is returned for documents with no element at all.
var ErrNoRootElement = errors.New("document has no root element")

var exprCache sync.Map // path -> *xpath.Expr

// compile returns the cached namespaced expression for path. Paths are
// package constants, so a compile failure is a programming error.
func compile(path string) *xpath.Expr {
	if e, ok := exprCache.Load(path); ok {
		return e.(*xpath.Expr)
	}
	e, err := xpath.CompileWithNS(path, namespaces)
	if err != nil {
		panic(fmt.Sprintf("elements: invalid query %q: %v", path, err))
	}
	exprCache.Store(path, e)
	return e
}

// ParseDocument parses a registry response body.
func ParseDocument(body string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing registry XML: %w", err)
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("parsing registry XML: %w", ErrNoRootElement)
}

// Find returns the first node matching path below root, or nil.
func Find(root *xmlquery.Node, path string) *xmlquery.Node {
	if root == nil {
		return nil
	}
	return xmlquery.QuerySelector(root, compile(path))
}

// FindAll returns every node matching path below root in document order.
func FindAll(root *xmlquery.Node, path string) []*xmlquery.Node {
	if root == nil {
		return nil
	}
	return xmlquery.QuerySelectorAll(root, compile(path))
}

// ExtractField returns the trimmed text of the first node matching path,
// or "" when nothing matches.
func ExtractField(root *xmlquery.Node, path string) string {
	n := Find(root, path)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

// ExtractAttr returns attribute attr of the first node matching path, or
// "" when either is missing.
func ExtractAttr(root *xmlquery.Node, path, attr string) string {
	n := Find(root, path)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.SelectAttr(attr))
}

// Exists reports whether path matches any node below root.
func Exists(root *xmlquery.Node, path string) bool {
	return Find(root, path) != nil
}
