package model

import (
	"strings"
	"testing"
)

// TestPageComputeHash tests the ComputeHash method.
func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of body", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: []byte("Hello, World!")}
		page.ComputeHash()

		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if page.Hash != expected {
			t.Errorf("got %q, expected %q", page.Hash, expected)
		}
	})

	t.Run("empty body produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: nil, Hash: "stale"}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})
}

func TestPageTruncateBody(t *testing.T) {
	t.Parallel()

	page := &Page{Body: []byte(strings.Repeat("a", MaxPageSize+10))}
	page.TruncateBody()

	if len(page.Body) != MaxPageSize {
		t.Errorf("expected body of %d bytes, got %d", MaxPageSize, len(page.Body))
	}
}

func TestPageIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=iso-8859-1", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/json", false},
		{"image/png", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()

			page := &Page{ContentType: tt.contentType}
			if got := page.IsHTML(); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestPageBase(t *testing.T) {
	t.Parallel()

	page := &Page{RequestURL: "http://example.org/a"}
	if page.Base() != "http://example.org/a" {
		t.Errorf("expected request URL fallback, got %q", page.Base())
	}

	page.BaseURL = "http://example.org/b/"
	if page.Base() != "http://example.org/b/" {
		t.Errorf("expected base URL, got %q", page.Base())
	}
}
