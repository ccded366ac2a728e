package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const indexHTML = `<!doctype html>
<html><head><title> Reports </title><script>var x = 1;</script></head>
<body>
  <h1>Quarterly   reports</h1>
  <a href="/files/q1.pdf">Q1</a>
  <a href="files/q2.pdf#page=2">Q2</a>
  <a href="/files/q1.pdf">Q1 again</a>
  <a href="#top">top</a>
  <a href="javascript:void(0)">js</a>
  <a href="https://other.example/x.pdf">external</a>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "" {
			w.Header().Set("X-Seen-Token", r.Header.Get("X-Token"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/files/q1.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("%PDF-1.4\n% fake\n"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticFetcher_HTML(t *testing.T) {
	srv := newServer(t)
	f := NewStatic(StaticConfig{})

	content, err := f.Fetch(context.Background(), srv.URL+"/index.html", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if content.Kind != KindHTML {
		t.Errorf("Kind = %q, want html", content.Kind)
	}
	if content.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", content.StatusCode)
	}
	if content.Title != "Reports" {
		t.Errorf("Title = %q", content.Title)
	}
	if content.Text == "" || strings.Contains(content.Text, "var x") {
		t.Errorf("Text should be visible body text only, got %q", content.Text)
	}

	want := []string{
		srv.URL + "/files/q1.pdf",
		srv.URL + "/files/q2.pdf",
		"https://other.example/x.pdf",
	}
	if !reflect.DeepEqual(content.Links, want) {
		t.Errorf("Links = %v, want %v", content.Links, want)
	}
}

func TestStaticFetcher_PDFBySniffing(t *testing.T) {
	srv := newServer(t)
	f := NewStatic(StaticConfig{})

	content, err := f.Fetch(context.Background(), srv.URL+"/files/q1.pdf", Options{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if content.Kind != KindPDF {
		t.Errorf("Kind = %q, want pdf", content.Kind)
	}
	if content.HTML != "" || len(content.Links) != 0 {
		t.Error("PDF content should not be parsed as HTML")
	}
}

func TestStaticFetcher_NotFound(t *testing.T) {
	srv := newServer(t)
	f := NewStatic(StaticConfig{})

	content, err := f.Fetch(context.Background(), srv.URL+"/missing", Options{})
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("expected ErrHTTPStatus, got %v", err)
	}
	if content.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", content.StatusCode)
	}
}

func TestStaticFetcher_EmptyBody(t *testing.T) {
	srv := newServer(t)
	f := NewStatic(StaticConfig{})

	if _, err := f.Fetch(context.Background(), srv.URL+"/empty", Options{}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestStaticFetcher_BodyTooLarge(t *testing.T) {
	srv := newServer(t)

	f := NewStatic(StaticConfig{MaxBodySize: 64})
	if _, err := f.Fetch(context.Background(), srv.URL+"/index.html", Options{}); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	f = NewStatic(StaticConfig{MaxBodySize: len(indexHTML) + 1})
	if _, err := f.Fetch(context.Background(), srv.URL+"/index.html", Options{}); err != nil {
		t.Fatalf("Fetch() under the limit error = %v", err)
	}
}

func TestStaticFetcher_Headers(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Token") + "|" + r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := NewStatic(StaticConfig{UserAgent: "test-agent", Headers: map[string]string{"X-Token": "cfg"}})
	if _, err := f.Fetch(context.Background(), srv.URL, Options{Headers: map[string]string{"X-Token": "call"}}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != "call|test-agent" {
		t.Errorf("server saw %q", got)
	}
}

func TestDownload(t *testing.T) {
	srv := newServer(t)
	dir := filepath.Join(t.TempDir(), "raw")

	path, content, err := Download(context.Background(), NewStatic(StaticConfig{}), srv.URL+"/files/q1.pdf", dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if filepath.Base(path) != "q1.pdf" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != string(content.Body) {
		t.Errorf("file content mismatch: %q, %v", data, err)
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		url         string
		want        Kind
	}{
		{"pdf content type", "application/pdf", "", "https://x/a", KindPDF},
		{"html content type", "text/html; charset=utf-8", "", "https://x/a", KindHTML},
		{"pdf magic", "application/octet-stream", "\n%PDF-1.7", "https://x/a", KindPDF},
		{"pdf extension", "", "", "https://x/doc.PDF?download=1", KindPDF},
		{"html sniff", "", "<!DOCTYPE html><html>", "https://x/a", KindHTML},
		{"other", "text/csv", "a,b", "https://x/a.csv", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.contentType, []byte(tt.body), tt.url); got != tt.want {
				t.Errorf("DetectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		want string
	}{
		{"https://x/files/Report 2024.pdf", KindPDF, "Report_2024.pdf"},
		{"https://x/download?id=3", KindPDF, "download.pdf"},
		{"https://x/", KindHTML, "index.html"},
		{"https://x/data", KindOther, "data.bin"},
	}
	for _, tt := range tests {
		if got := FileName(tt.url, tt.kind); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNeedsJavaScript(t *testing.T) {
	shell := Content{HTML: `<html><body><div id="root"></div></body></html>`}
	if !NeedsJavaScript(shell) {
		t.Error("expected SPA shell to need javascript")
	}
	loading := Content{HTML: "<html></html>", Text: "Loading..."}
	if !NeedsJavaScript(loading) {
		t.Error("expected loading placeholder to need javascript")
	}
	static := Content{HTML: "<html><body><table></table></body></html>", Text: "A perfectly normal static page with plenty of readable content that goes well past the threshold."}
	if NeedsJavaScript(static) {
		t.Error("static page should not need javascript")
	}
}

func TestNew_UnknownMode(t *testing.T) {
	if _, err := New("carrier-pigeon", StaticConfig{}); err == nil {
		t.Error("expected error for unknown mode")
	}
	f, err := New(ModeStatic, StaticConfig{})
	if err != nil || f.Type() != "static" {
		t.Errorf("New(static) = %v, %v", f, err)
	}
}
