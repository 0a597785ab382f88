package crawler

import (
	"net/url"
	"strings"
)

// CountryPlaceholder is replaced by the country name in Layout templates.
const CountryPlaceholder = "{country}"

// Default directory layout of charity-charities.org.
const (
	DefaultBaseURL      = "http://www.charity-charities.org"
	DefaultPathTemplate = "/" + CountryPlaceholder + "-charities"
	DefaultPageTemplate = CountryPlaceholder + ".html"
)

// Layout holds the URL templates of a directory site. The templates are the
// only source of truth for classification; no country name is hardcoded.
type Layout struct {
	// BaseURL is scheme and host, e.g. "http://www.charity-charities.org".
	BaseURL string `yaml:"base_url,omitempty"`

	// PathTemplate is the parent path of every country and city page,
	// e.g. "/{country}-charities". It starts with a slash and has no
	// trailing slash.
	PathTemplate string `yaml:"path_template,omitempty"`

	// PageTemplate is the file name of the country page, e.g. "{country}.html".
	// It contains no slash.
	PageTemplate string `yaml:"page_template,omitempty"`
}

// DefaultLayout returns the layout of charity-charities.org.
func DefaultLayout() Layout {
	return Layout{
		BaseURL:      DefaultBaseURL,
		PathTemplate: DefaultPathTemplate,
		PageTemplate: DefaultPageTemplate,
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout()
	if l.BaseURL == "" {
		l.BaseURL = d.BaseURL
	}
	if l.PathTemplate == "" {
		l.PathTemplate = d.PathTemplate
	}
	if l.PageTemplate == "" {
		l.PageTemplate = d.PageTemplate
	}
	return l
}

// ParentPath expands PathTemplate for a country.
func (l Layout) ParentPath(country string) string {
	return strings.ReplaceAll(l.PathTemplate, CountryPlaceholder, country)
}

// PageName expands PageTemplate for a country.
func (l Layout) PageName(country string) string {
	return strings.ReplaceAll(l.PageTemplate, CountryPlaceholder, country)
}

// SeedURL returns the absolute URL of the country page.
// Path segments are escaped, so "United States" becomes "United%20States".
func (l Layout) SeedURL(country string) (string, error) {
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}
	ref := &url.URL{Path: l.ParentPath(country) + "/" + l.PageName(country)}
	return base.ResolveReference(ref).String(), nil
}

// splitPath splits a URL path at its final slash into parent and last
// segment. A path without a slash has an empty parent.
func splitPath(p string) (parent, last string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
