package crawler

import (
	"fmt"
	"strings"

	"github.com/nao1215/npocrawl/internal/model"
)

// Outcome is what a handler produces for one page: follow-up targets,
// a record, or neither.
type Outcome struct {
	Targets []model.Target
	Record  *model.Nonprofit
}

// Handler processes one parsed page of a known kind.
type Handler func(doc *Document) (Outcome, error)

// Handlers holds the per-kind page handlers for one country.
type Handlers struct {
	classifier *Classifier
	selectors  Selectors
	country    string
}

// NewHandlers returns the handlers for a country.
func NewHandlers(layout Layout, selectors Selectors, country string) *Handlers {
	return &Handlers{
		classifier: NewClassifier(layout, selectors, country),
		selectors:  selectors,
		country:    country,
	}
}

// Table returns the dispatch table. KindUnknown has no entry.
func (h *Handlers) Table() map[model.PageKind]Handler {
	return map[model.PageKind]Handler{
		model.KindCountry:   h.Country,
		model.KindCity:      h.City,
		model.KindNonprofit: h.Nonprofit,
	}
}

// Dispatch runs the handler of kind from table. A kind without an entry
// yields ErrUnknownPage.
func Dispatch(table map[model.PageKind]Handler, kind model.PageKind, doc *Document) (Outcome, error) {
	handler, ok := table[kind]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownPage, kind)
	}
	return handler(doc)
}

// Country follows every city link on the country page. Anchors sharing the
// city-link class but pointing at another section of the site do not
// classify as KindCity and are skipped.
func (h *Handlers) Country(doc *Document) (Outcome, error) {
	var out Outcome
	for _, href := range doc.SelectAttr(h.selectors.CityLinks, "href") {
		abs, ok := doc.Resolve(href)
		if !ok {
			continue
		}
		if h.classifier.ClassifyURL(abs) != model.KindCity {
			continue
		}
		out.Targets = append(out.Targets, model.Target{URL: abs, Referrer: doc.URL()})
	}
	return out, nil
}

// City follows every nonprofit detail link and, when the last pagination
// anchor reads NextText, the next page of the same city listing.
func (h *Handlers) City(doc *Document) (Outcome, error) {
	var out Outcome
	for _, href := range doc.SelectAttr(h.selectors.DetailLinks, "href") {
		if abs, ok := doc.Resolve(href); ok {
			out.Targets = append(out.Targets, model.Target{URL: abs, Referrer: doc.URL()})
		}
	}

	if next, ok := h.nextPage(doc); ok {
		out.Targets = append(out.Targets, model.Target{URL: next, Referrer: doc.URL()})
	}
	return out, nil
}

// nextPage returns the resolved href of the last pagination anchor if its
// text is NextText.
func (h *Handlers) nextPage(doc *Document) (string, bool) {
	anchors := doc.Anchors(h.selectors.Pagination)
	if len(anchors) == 0 {
		return "", false
	}

	last := anchors[len(anchors)-1]
	if strings.TrimSpace(last.Text) != h.selectors.NextText || !last.HasHref {
		return "", false
	}
	return doc.Resolve(last.Href)
}

// Nonprofit extracts the record of a detail page. A missing or empty name
// or description yields a *FieldError; website and city are optional.
func (h *Handlers) Nonprofit(doc *Document) (Outcome, error) {
	name, ok := h.requiredField(doc, h.selectors.Name)
	if !ok {
		return Outcome{}, &FieldError{Field: "name", URL: doc.URL()}
	}

	description, ok := h.requiredField(doc, h.selectors.Description)
	if !ok {
		return Outcome{}, &FieldError{Field: "description", URL: doc.URL()}
	}

	record := &model.Nonprofit{
		Name:        name,
		Country:     h.country,
		Description: description,
		Website:     optionalField(doc, h.selectors.Website),
		CauseArea:   JoinCauseTags(doc.SelectText(h.selectors.CauseTags), h.selectors.CauseSentinel),
		City:        optionalField(doc, h.selectors.City),
		SourceURL:   doc.URL(),
	}
	return Outcome{Record: record}, nil
}

func (h *Handlers) requiredField(doc *Document, selector string) (string, bool) {
	raw, ok := doc.FirstText(selector)
	if !ok {
		return "", false
	}
	v := CleanText(raw)
	return v, v != ""
}

func optionalField(doc *Document, selector string) string {
	raw, ok := doc.FirstText(selector)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

// CleanText removes double quotes and surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// JoinCauseTags joins tags with a comma after each one, the last included,
// skipping the sentinel and empty tags:
//
//	["Health", "View All", "Education"] -> "Health,Education,"
func JoinCauseTags(tags []string, sentinel string) string {
	var b strings.Builder
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == sentinel {
			continue
		}
		b.WriteString(tag)
		b.WriteByte(',')
	}
	return b.String()
}
