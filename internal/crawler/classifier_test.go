package crawler

import (
	"testing"

	"github.com/nao1215/npocrawl/internal/model"
)

// TestClassifyURL tests URL-based classification.
func TestClassifyURL(t *testing.T) {
	t.Parallel()

	layout := DefaultLayout()

	tests := []struct {
		name    string
		url     string
		country string
		want    model.PageKind
	}{
		{
			name:    "country page",
			url:     "http://www.charity-charities.org/Thailand-charities/Thailand.html",
			country: "Thailand",
			want:    model.KindCountry,
		},
		{
			name:    "city page",
			url:     "http://www.charity-charities.org/Thailand-charities/Bangkok.html",
			country: "Thailand",
			want:    model.KindCity,
		},
		{
			name:    "city page with pagination query",
			url:     "http://www.charity-charities.org/Thailand-charities/Bangkok.html?start=20",
			country: "Thailand",
			want:    model.KindCity,
		},
		{
			name:    "foreign parent with country file name",
			url:     "http://www.charity-charities.org/Environmental/Thailand.html",
			country: "Thailand",
			want:    model.KindUnknown,
		},
		{
			name:    "foreign parent volunteers section",
			url:     "http://www.charity-charities.org/Thailand-volunteers/Bangkok.html",
			country: "Thailand",
			want:    model.KindUnknown,
		},
		{
			name:    "other country",
			url:     "http://www.charity-charities.org/Vietnam-charities/Vietnam.html",
			country: "Thailand",
			want:    model.KindUnknown,
		},
		{
			name:    "nested below country path",
			url:     "http://www.charity-charities.org/Thailand-charities/sub/Bangkok.html",
			country: "Thailand",
			want:    model.KindUnknown,
		},
		{
			name:    "root",
			url:     "http://www.charity-charities.org/",
			country: "Thailand",
			want:    model.KindUnknown,
		},
		{
			name:    "directory index counts as city",
			url:     "http://www.charity-charities.org/Thailand-charities/",
			country: "Thailand",
			want:    model.KindCity,
		},
		{
			name:    "escaped country with space",
			url:     "http://www.charity-charities.org/United%20Kingdom-charities/United%20Kingdom.html",
			country: "United Kingdom",
			want:    model.KindCountry,
		},
		{
			name:    "unparseable URL",
			url:     "http://[::1",
			country: "Thailand",
			want:    model.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ClassifyURL(tt.url, layout, tt.country)
			if got != tt.want {
				t.Errorf("ClassifyURL(%q, %q) = %v, want %v", tt.url, tt.country, got, tt.want)
			}
		})
	}
}

// TestClassifyURLProperties checks the classification rules for several
// countries and layouts, and that classification is repeatable.
func TestClassifyURLProperties(t *testing.T) {
	t.Parallel()

	layouts := []Layout{
		DefaultLayout(),
		{BaseURL: "https://mirror.example", PathTemplate: "/dir/{country}", PageTemplate: "index-{country}.htm"},
	}
	countries := []string{"Thailand", "Kenya", "Peru"}
	lastSegments := []string{"Bangkok.html", "x", "", "Thailand.htm"}
	foreignParents := []string{"/", "/Environmental", "/dir", "/other-charities"}

	for _, layout := range layouts {
		for _, country := range countries {
			parent := layout.ParentPath(country)
			page := layout.PageName(country)

			u := "http://host" + parent + "/" + page
			if got := ClassifyURL(u, layout, country); got != model.KindCountry {
				t.Errorf("%s: expected country, got %v", u, got)
			}

			for _, last := range lastSegments {
				if last == page {
					continue
				}
				u := "http://host" + parent + "/" + last
				if got := ClassifyURL(u, layout, country); got != model.KindCity {
					t.Errorf("%s: expected city, got %v", u, got)
				}
			}

			for _, foreign := range foreignParents {
				for _, last := range append(lastSegments, page) {
					u := "http://host" + foreign + "/" + last
					if got := ClassifyURL(u, layout, country); got != model.KindUnknown {
						t.Errorf("%s: expected unknown, got %v", u, got)
					}
				}
			}

			first := ClassifyURL(u, layout, country)
			for range 3 {
				if again := ClassifyURL(u, layout, country); again != first {
					t.Errorf("%s: classification changed from %v to %v", u, first, again)
				}
			}
		}
	}
}

// TestClassifierPrecedence tests that the content stage wins over the URL stage.
func TestClassifierPrecedence(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultLayout(), DefaultSelectors(), "Thailand")

	tests := []struct {
		name string
		url  string
		body string
		want model.PageKind
	}{
		{
			name: "marker on a city-shaped URL is a nonprofit",
			url:  "http://www.charity-charities.org/Thailand-charities/Helping-Hands.html",
			body: `<html><body><a class="deadlink" href="/report">Report dead listing</a></body></html>`,
			want: model.KindNonprofit,
		},
		{
			name: "marker on a foreign URL is a nonprofit",
			url:  "http://www.charity-charities.org/orgs/1234.html",
			body: `<a class="deadlink" href="/report">x</a>`,
			want: model.KindNonprofit,
		},
		{
			name: "no marker falls back to the URL",
			url:  "http://www.charity-charities.org/Thailand-charities/Bangkok.html",
			body: `<html><body><a class="fndname" href="/a.html">A</a></body></html>`,
			want: model.KindCity,
		},
		{
			name: "no marker and foreign URL is unknown",
			url:  "http://www.charity-charities.org/orgs/1234.html",
			body: `<html><body></body></html>`,
			want: model.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := newPage(tt.url, tt.body)
			doc := mustParse(t, page)
			if got := c.Classify(page, doc); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutSeedURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		layout  Layout
		country string
		want    string
	}{
		{
			name:    "default layout",
			layout:  DefaultLayout(),
			country: "Thailand",
			want:    "http://www.charity-charities.org/Thailand-charities/Thailand.html",
		},
		{
			name:    "base URL with trailing slash",
			layout:  Layout{BaseURL: "http://example.org/", PathTemplate: "/{country}-charities", PageTemplate: "{country}.html"},
			country: "Kenya",
			want:    "http://example.org/Kenya-charities/Kenya.html",
		},
		{
			name:    "country with space is escaped",
			layout:  DefaultLayout(),
			country: "Sri Lanka",
			want:    "http://www.charity-charities.org/Sri%20Lanka-charities/Sri%20Lanka.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.layout.SeedURL(tt.country)
			if err != nil {
				t.Fatalf("SeedURL() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SeedURL() = %q, want %q", got, tt.want)
			}
			if kind := ClassifyURL(got, tt.layout, tt.country); kind != model.KindCountry {
				t.Errorf("seed URL classified as %v", kind)
			}
		})
	}
}

func TestLayoutWithDefaults(t *testing.T) {
	t.Parallel()

	l := Layout{BaseURL: "http://example.org"}.WithDefaults()
	if l.BaseURL != "http://example.org" {
		t.Errorf("base URL overwritten: %q", l.BaseURL)
	}
	if l.PathTemplate != DefaultPathTemplate || l.PageTemplate != DefaultPageTemplate {
		t.Errorf("templates not defaulted: %+v", l)
	}
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, parent, last string
	}{
		{"/a-charities/b.html", "/a-charities", "b.html"},
		{"/b.html", "", "b.html"},
		{"b.html", "", "b.html"},
		{"", "", ""},
		{"/a/", "/a", ""},
	}

	for _, tt := range tests {
		parent, last := splitPath(tt.path)
		if parent != tt.parent || last != tt.last {
			t.Errorf("splitPath(%q) = (%q, %q), want (%q, %q)", tt.path, parent, last, tt.parent, tt.last)
		}
	}
}
