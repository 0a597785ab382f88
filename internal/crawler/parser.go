package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/npocrawl/internal/model"
)

// Document is a parsed HTML response with CSS selector extraction and
// link resolution against the response's base URL.
type Document struct {
	doc     *goquery.Document
	base    *url.URL
	pageURL string
}

// Anchor is an <a> element with its href and text.
type Anchor struct {
	Href    string
	HasHref bool
	Text    string
}

// ParseDocument parses the body of a fetched page.
// Relative links resolve against <base href> when present, otherwise
// against the page's base URL.
func ParseDocument(page *model.Page) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(page.Base())
	if err != nil {
		return nil, err
	}

	doc := goquery.NewDocumentFromNode(root)
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	return &Document{doc: doc, base: base, pageURL: page.RequestURL}, nil
}

// URL returns the requested URL of the page.
func (d *Document) URL() string {
	return d.pageURL
}

// Has reports whether at least one element matches the selector.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// SelectAttr returns the attribute of every matching element that has it,
// in document order.
func (d *Document) SelectAttr(selector, attr string) []string {
	values := make([]string, 0)
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			values = append(values, v)
		}
	})
	return values
}

// SelectText returns the text of every matching element in document order.
func (d *Document) SelectText(selector string) []string {
	values := make([]string, 0)
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		values = append(values, s.Text())
	})
	return values
}

// FirstAttr returns the attribute of the first matching element that has it.
func (d *Document) FirstAttr(selector, attr string) (string, bool) {
	values := d.SelectAttr(selector, attr)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// FirstText returns the text of the first matching element.
func (d *Document) FirstText(selector string) (string, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Text(), true
}

// Anchors returns every matching element as an Anchor, in document order.
func (d *Document) Anchors(selector string) []Anchor {
	anchors := make([]Anchor, 0)
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		anchors = append(anchors, Anchor{Href: href, HasHref: ok, Text: s.Text()})
	})
	return anchors
}

// Resolve resolves href against the document base and returns an absolute
// URL without fragment. Empty, fragment-only and non-navigational hrefs
// (javascript:, mailto:, tel:, data:) are rejected.
func (d *Document) Resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := d.base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}
