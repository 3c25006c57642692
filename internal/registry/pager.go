// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"github.com/pdiddy/elements-sync/internal/elements"
)

// Fetcher retrieves a registry document by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Pager walks a paginated registry feed one page at a time by following
// each page's "next" link. A Pager is consumed as it goes and cannot be
// restarted. It stops with ErrTooManyPages after maxPages pages, which is
// the only guard against a registry that serves a cyclic chain of links.
type Pager struct {
	fetcher  Fetcher
	next     string
	maxPages int
	fetched  int
	done     bool
}

// NewPager returns a pager starting at startURL. maxPages <= 0 uses
// DefaultMaxPages.
func NewPager(f Fetcher, startURL string, maxPages int) *Pager {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Pager{fetcher: f, next: startURL, maxPages: maxPages}
}

// Next fetches the next page. It returns ok == false once the feed is
// exhausted; after an error the pager is exhausted too.
func (p *Pager) Next(ctx context.Context) (page string, ok bool, err error) {
	if p.done || p.next == "" {
		p.done = true
		return "", false, nil
	}
	if p.fetched >= p.maxPages {
		p.done = true
		return "", false, fmt.Errorf("%w: stopped after %d pages before %s", ErrTooManyPages, p.maxPages, p.next)
	}

	current := p.next
	body, err := p.fetcher.Fetch(ctx, current)
	if err != nil {
		p.done = true
		return "", false, err
	}
	p.fetched++

	next, err := elements.NextPageURL(body)
	if err != nil {
		p.done = true
		return "", false, fmt.Errorf("reading pagination of %s: %w", current, err)
	}
	p.next = resolve(current, next)
	return body, true, nil
}

// All yields the remaining pages lazily. An error is yielded once, as the
// final element.
func (p *Pager) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			page, ok, err := p.Next(ctx)
			if err != nil {
				yield("", err)
				return
			}
			if !ok {
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// Pages lazily yields the pages of the feed starting at startURL.
func Pages(ctx context.Context, f Fetcher, startURL string, maxPages int) iter.Seq2[string, error] {
	return NewPager(f, startURL, maxPages).All(ctx)
}

// Collect reads every remaining page.
func (p *Pager) Collect(ctx context.Context) ([]string, error) {
	var pages []string
	for page, err := range p.All(ctx) {
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Fetched returns the number of pages retrieved so far.
func (p *Pager) Fetched() int { return p.fetched }

// resolve makes a relative next link absolute against the page it came from.
func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
