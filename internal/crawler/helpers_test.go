package crawler

import (
	"testing"

	"github.com/nao1215/npocrawl/internal/model"
)

func newPage(rawURL, body string) *model.Page {
	return &model.Page{
		RequestURL:  rawURL,
		BaseURL:     rawURL,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}
}

func mustParse(t *testing.T, page *model.Page) *Document {
	t.Helper()

	doc, err := ParseDocument(page)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

func targetURLs(targets []model.Target) []string {
	urls := make([]string, len(targets))
	for i, t := range targets {
		urls[i] = t.URL
	}
	return urls
}
