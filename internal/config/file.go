package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/npocrawl/internal/crawler"
)

// FetchConfig holds request settings for the directory site.
type FetchConfig struct {
	// UserAgent overrides the default User-Agent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Cookie is sent with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// RespectRobots makes the colly engine honour robots.txt.
	RespectRobots bool `yaml:"respect_robots,omitempty"`
}

// File represents the structure of the .npocrawl configuration file.
type File struct {
	// Countries are crawled when no country is given on the command line.
	Countries []string `yaml:"countries,omitempty"`

	// Directory overrides the URL layout of the directory site.
	Directory crawler.Layout `yaml:"directory,omitempty"`

	// Selectors override the CSS selectors used on each page kind.
	Selectors crawler.Selectors `yaml:"selectors,omitempty"`

	// Fetch holds request settings.
	Fetch FetchConfig `yaml:"fetch,omitempty"`
}

// Layout returns the configured layout with defaults for empty fields.
// A nil File yields the default layout.
func (f *File) Layout() crawler.Layout {
	if f == nil {
		return crawler.DefaultLayout()
	}
	return f.Directory.WithDefaults()
}

// SelectorSet returns the configured selectors with defaults for empty
// fields. A nil File yields the default selectors.
func (f *File) SelectorSet() crawler.Selectors {
	if f == nil {
		return crawler.DefaultSelectors()
	}
	return f.Selectors.WithDefaults()
}

// Validate checks the directory layout overrides.
func (f *File) Validate() error {
	d := f.Directory
	if d.BaseURL != "" {
		u, err := url.Parse(d.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidBaseURL
		}
	}
	if d.PathTemplate != "" {
		if err := validatePathTemplate(d.PathTemplate); err != nil {
			return err
		}
	}
	if d.PageTemplate != "" {
		if !strings.Contains(d.PageTemplate, crawler.CountryPlaceholder) {
			return fmt.Errorf("%w: page_template %q lacks %s", ErrInvalidTemplate, d.PageTemplate, crawler.CountryPlaceholder)
		}
		if strings.Contains(d.PageTemplate, "/") {
			return fmt.Errorf("%w: page_template %q must be a file name", ErrInvalidTemplate, d.PageTemplate)
		}
	}
	return nil
}

// validatePathTemplate enforces the shape classification relies on: the
// expanded template must equal the parent path of a page URL exactly.
func validatePathTemplate(tmpl string) error {
	switch {
	case !strings.Contains(tmpl, crawler.CountryPlaceholder):
		return fmt.Errorf("%w: path_template %q lacks %s", ErrInvalidTemplate, tmpl, crawler.CountryPlaceholder)
	case !strings.HasPrefix(tmpl, "/"):
		return fmt.Errorf("%w: path_template %q must start with /", ErrInvalidTemplate, tmpl)
	case strings.HasSuffix(tmpl, "/"):
		return fmt.Errorf("%w: path_template %q must not end with /", ErrInvalidTemplate, tmpl)
	}
	return nil
}
