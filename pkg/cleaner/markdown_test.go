package cleaner

import (
	"strings"
	"testing"
)

func TestMarkdownCleaner_Clean(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string
	}{
		{"headers", `<h1>H1</h1><h2>H2</h2><h3>H3</h3>`, []string{"# H1", "## H2", "### H3"}},
		{"paragraph", `<h1>Title</h1><p>A paragraph.</p>`, []string{"# Title", "A paragraph."}},
		{"lists", `<ul><li>Item 1</li><li>Item 2</li></ul>`, []string{"Item 1", "Item 2"}},
		{"links", `<a href="https://example.com">Example Link</a>`, []string{"[Example Link](https://example.com)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMarkdown().Clean(tt.html)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}

func TestMarkdownCleaner_FromTestdata(t *testing.T) {
	got, err := NewMarkdown().Clean(readTestdata(t, "article.html"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, check := range []string{"Main Heading", "bold", "italic", "Second Heading", "First item", "link to example", "North"} {
		if !strings.Contains(got, check) {
			t.Errorf("expected %q in output", check)
		}
	}
}

func TestMarkdownCleaner_Strip(t *testing.T) {
	html := `<p>See <a href="https://example.com/doc">the report</a> <img src="chart.png" alt="chart"></p>`

	got, err := NewMarkdown(WithStripLinks(true), WithStripImages(true)).Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "example.com") || strings.Contains(got, "chart.png") {
		t.Errorf("links and images should be stripped, got %q", got)
	}
	if !strings.Contains(got, "the report") {
		t.Errorf("link text should be kept, got %q", got)
	}
}

func TestMarkdownCleaner_Name(t *testing.T) {
	if got := NewMarkdown().Name(); got != "markdown" {
		t.Errorf("Name() = %q, want %q", got, "markdown")
	}
}

func TestCleanWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a\n\n\n\nb", "a\n\nb"},
		{"  \n\nText\n\n  ", "Text"},
		{"", ""},
		{"a\n \t\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		if got := cleanWhitespace(tt.in); got != tt.want {
			t.Errorf("cleanWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
