package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxPageSize is the maximum size of a response body kept in a Page.
// Larger bodies are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page is a fetched response as delivered by a fetch engine.
type Page struct {
	// RequestURL is the URL that was requested.
	RequestURL string `json:"request_url"`

	// BaseURL is the URL relative links resolve against. Engines set it to
	// the final URL after redirects; a <base href> in the body takes
	// precedence when the document is parsed.
	BaseURL string `json:"base_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the Content-Type response header.
	ContentType string `json:"content_type,omitempty"`

	// Body is the raw response body, limited to MaxPageSize.
	Body []byte `json:"-"`

	// Hash is the SHA-256 hash of Body.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the body.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(hash[:])
}

// TruncateBody enforces MaxPageSize on the body.
func (p *Page) TruncateBody() {
	if len(p.Body) > MaxPageSize {
		p.Body = p.Body[:MaxPageSize]
	}
}

// IsHTML reports whether the content type is HTML.
// An empty content type is treated as HTML because the directory site
// does not always send one.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// Base returns BaseURL, falling back to RequestURL.
func (p *Page) Base() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return p.RequestURL
}
