package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
)

// testDirectory serves a small nonprofit directory for Thailand: one city
// with two listing pages and three nonprofits.
type testDirectory struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

func newTestDirectory(t *testing.T) *testDirectory {
	t.Helper()

	d := &testDirectory{}
	mux := http.NewServeMux()
	mux.HandleFunc("/Thailand-charities/Thailand.html", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, `<html><body>
			<a class="nwslink" href="Bangkok.html">Bangkok</a>
		</body></html>`)
	})
	mux.HandleFunc("/Thailand-charities/Bangkok.html", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "20" {
			writeHTML(w, `<html><body>
				<a class="fndname" href="/orgs/c.html">C</a>
				<a class="chnlink" href="Bangkok.html">&lt;&lt; Prev</a>
			</body></html>`)
			return
		}
		writeHTML(w, `<html><body>
			<a class="fndname" href="/orgs/a.html">A</a>
			<a class="fndname" href="/orgs/b.html">B</a>
			<a class="chnlink" href="Bangkok.html?start=20">Next &gt;&gt;</a>
		</body></html>`)
	})
	for path, name := range map[string]string{
		"/orgs/a.html": "Alpha",
		"/orgs/b.html": "Beta",
		"/orgs/c.html": "Gamma",
	} {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			writeHTML(w, `<html><body>
				<h1 class="npname">`+name+`</h1>
				<div class="npdesc">About `+name+`</div>
				<span class="npcity">Bangkok</span>
				<a class="deadlink" href="/dead">Report</a>
			</body></html>`)
		})
	}

	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.requests = append(d.requests, r.URL.RequestURI())
		d.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(d.Close)
	return d
}

func (d *testDirectory) requested(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.requests, path)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, body) //nolint:errcheck // Test server
}

// writeConfig writes a configuration file pointing at the test directory.
func writeConfig(t *testing.T, baseURL string, extra string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".npocrawl")
	content := "directory:\n  base_url: \"" + baseURL + "\"\n" + extra
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// executeRoot runs the root command with args and returns its standard output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
