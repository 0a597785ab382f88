package crawler

import (
	"net/url"

	"github.com/nao1215/npocrawl/internal/model"
)

// ClassifyURL classifies a URL by its path alone.
//
// The path is split at its final slash into parent and last segment:
//   - parent == layout.ParentPath(country) and last == layout.PageName(country): KindCountry
//   - parent == layout.ParentPath(country) and last differs: KindCity
//   - anything else, including unparseable URLs: KindUnknown
//
// ClassifyURL never returns KindNonprofit; nonprofit pages are recognised
// by content. It is a pure function.
func ClassifyURL(rawURL string, layout Layout, country string) model.PageKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.KindUnknown
	}

	parent, last := splitPath(u.Path)
	if parent != layout.ParentPath(country) {
		return model.KindUnknown
	}
	if last == layout.PageName(country) {
		return model.KindCountry
	}
	return model.KindCity
}

// IsNonprofitPage reports whether the document carries the nonprofit marker.
// Every detail page on the directory has the marker (the "report a dead
// listing" link), so its presence identifies the page kind.
func IsNonprofitPage(doc *Document, selectors Selectors) bool {
	return doc.Has(selectors.NonprofitMarker)
}

// Classifier is the two-stage classifier for fetched pages.
// The content stage takes precedence over the URL stage.
type Classifier struct {
	layout    Layout
	selectors Selectors
	country   string
}

// NewClassifier returns a Classifier bound to one country.
func NewClassifier(layout Layout, selectors Selectors, country string) *Classifier {
	return &Classifier{layout: layout, selectors: selectors, country: country}
}

// Classify returns KindNonprofit when the marker is present, otherwise the
// URL classification of the requested URL.
func (c *Classifier) Classify(page *model.Page, doc *Document) model.PageKind {
	if IsNonprofitPage(doc, c.selectors) {
		return model.KindNonprofit
	}
	return ClassifyURL(page.RequestURL, c.layout, c.country)
}

// ClassifyURL classifies a URL for the classifier's country.
func (c *Classifier) ClassifyURL(rawURL string) model.PageKind {
	return ClassifyURL(rawURL, c.layout, c.country)
}
