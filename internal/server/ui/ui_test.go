package ui

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServesFilesWithIndexFallback(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":        "<app-root></app-root>",
		"main.js":           "console.log('main')",
		"assets/index.html": "assets index",
	})
	h := New(root)

	cases := []struct {
		target string
		want   string
	}{
		{target: "/", want: "<app-root></app-root>"},
		{target: "/main.js", want: "console.log('main')"},
		{target: "/assets/", want: "assets index"},
		{target: "/console/history", want: "<app-root></app-root>"},
		{target: "/../../etc/passwd", want: "<app-root></app-root>"},
	}
	for _, tc := range cases {
		rec := get(t, h, tc.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d", tc.target, rec.Code)
		}
		if got := rec.Body.String(); got != tc.want {
			t.Fatalf("GET %s: body %q want %q", tc.target, got, tc.want)
		}
	}
}

func TestMissingIndexIsNotFound(t *testing.T) {
	h := New(t.TempDir())
	rec := get(t, h, "/anything")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestCompressesLargeResponses(t *testing.T) {
	body := strings.Repeat("<p>block</p>", 512)
	h := New(writeTree(t, map[string]string{"index.html": body}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, headers: %v", rec.Header())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	decoded, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if string(decoded) != body {
		t.Fatalf("decoded body mismatch")
	}
}
