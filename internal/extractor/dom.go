package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Document is the narrow DOM query capability the extractor depends on.
// It is implemented once per HTML-parsing library; extraction functions
// never touch a concrete parser directly.
//
// Design decision: The interface is deliberately small (selector
// lookup, text, attributes and a sibling scan) because that is all the
// heuristic extraction rules need. Keeping it narrow makes the
// extraction functions trivially testable against any implementation.
type Document interface {
	// Find returns all nodes matching the CSS selector, in document
	// order.
	Find(selector string) []Node

	// First returns the first node matching the selector, or false.
	First(selector string) (Node, bool)

	// BodyText returns the document body's text with subtrees matching
	// exclude removed, not whitespace-normalized.
	BodyText(exclude string) string

	// Resolve resolves href against the document's base URL. It
	// returns empty for unusable hrefs (javascript:, mailto:, bare
	// fragments, malformed values).
	Resolve(href string) string
}

// Node is one element within a Document.
type Node interface {
	// Tag returns the lowercase tag name.
	Tag() string

	// Text returns the node's combined text content.
	Text() string

	// Attr returns the named attribute value, empty when absent.
	Attr(name string) string

	// HTML returns the node's outer markup, empty on serialization
	// failure.
	HTML() string

	// Find returns descendant nodes matching the selector.
	Find(selector string) []Node

	// FollowingUntil returns the node's following siblings up to, but
	// not including, the first sibling matching the selector.
	FollowingUntil(selector string) []Node
}

// Parse parses HTML into a goquery-backed Document. The base URL is
// used to resolve relative links. contentType, when non-empty, carries
// the response's Content-Type header so legacy encodings (windows-1256
// and friends on older government portals) are transcoded to UTF-8
// before parsing; charset.NewReader also sniffs meta tags and BOMs.
func Parse(baseURL, contentType string, body []byte) (Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	return &gqDocument{doc: doc, base: base}, nil
}

// gqDocument implements Document on goquery.
type gqDocument struct {
	doc  *goquery.Document
	base *url.URL
}

func (d *gqDocument) Find(selector string) []Node {
	return toNodes(d.doc.Find(selector))
}

func (d *gqDocument) First(selector string) (Node, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &gqNode{sel: sel}, true
}

func (d *gqDocument) BodyText(exclude string) string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return d.doc.Text()
	}
	if exclude == "" {
		return body.Text()
	}
	// Work on a clone so exclusion never mutates the document other
	// callers are still querying.
	clone := body.Clone()
	clone.Find(exclude).Remove()
	return clone.Text()
}

func (d *gqDocument) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return d.base.ResolveReference(u).String()
}

// gqNode implements Node on a goquery selection of one element.
type gqNode struct {
	sel *goquery.Selection
}

func (n *gqNode) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n *gqNode) Text() string {
	return n.sel.Text()
}

func (n *gqNode) Attr(name string) string {
	return n.sel.AttrOr(name, "")
}

func (n *gqNode) HTML() string {
	h, err := goquery.OuterHtml(n.sel)
	if err != nil {
		return ""
	}
	return h
}

func (n *gqNode) Find(selector string) []Node {
	return toNodes(n.sel.Find(selector))
}

func (n *gqNode) FollowingUntil(selector string) []Node {
	return toNodes(n.sel.NextUntil(selector))
}

func toNodes(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &gqNode{sel: s})
	})
	return nodes
}
