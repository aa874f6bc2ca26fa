package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element is a single node matched by a CSS selector
type Element interface {
	Attr(name string) (string, bool)
	Text() string
}

// DOMQuerier answers CSS selector queries against a page, either a parsed
// static document or a live browser tab.
type DOMQuerier interface {
	// Query returns the first element matching selector, or nil
	Query(selector string) Element
}

// documentQuerier adapts a goquery document
type documentQuerier struct {
	doc *goquery.Document
}

// NewDocumentQuerier wraps a parsed document
func NewDocumentQuerier(doc *goquery.Document) DOMQuerier {
	return &documentQuerier{doc: doc}
}

func (q *documentQuerier) Query(selector string) Element {
	sel := q.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &selectionElement{sel: sel}
}

type selectionElement struct {
	sel *goquery.Selection
}

func (e *selectionElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *selectionElement) Text() string {
	return e.sel.Text()
}

// metaContent returns the trimmed content of the first matching meta tag
func metaContent(q DOMQuerier, selector string) string {
	el := q.Query(selector)
	if el == nil {
		return ""
	}
	content, _ := el.Attr("content")
	return strings.TrimSpace(content)
}

// firstMetaContent returns the first non-empty content among selectors
func firstMetaContent(q DOMQuerier, selectors ...string) string {
	for _, selector := range selectors {
		if content := metaContent(q, selector); content != "" {
			return content
		}
	}
	return ""
}

// elementValue prefers machine-readable attributes over visible text
func elementValue(el Element) string {
	for _, attr := range []string{"content", "data-price", "data-value"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return normalizeSpace(el.Text())
}

// elementImage returns the image source of an <img> or meta-like element
func elementImage(el Element) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "content"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
