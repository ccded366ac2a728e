package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmylchreest/docsift/internal/config"
	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/pdftext"
)

// isURL reports whether arg names a remote document rather than a file.
func isURL(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// loadSource reads a local file or fetches a URL. Local HTML is parsed the
// same way fetched HTML is.
func loadSource(ctx context.Context, cfg *config.Config, arg string) (fetcher.Content, error) {
	if isURL(arg) {
		f, err := newFetcher(cfg)
		if err != nil {
			return fetcher.Content{}, err
		}
		defer func() { _ = f.Close() }()

		content, err := f.Fetch(ctx, arg, fetcher.Options{})
		if err != nil {
			logger.Error("fetch failed", "url", arg, "error", err)
			return content, err
		}
		return content, nil
	}

	body, err := os.ReadFile(arg) //#nosec G304 -- CLI tool reads user-specified input file
	if err != nil {
		logger.Error("failed to read input", "path", arg, "error", err)
		return fetcher.Content{}, err
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		abs = arg
	}
	content := fetcher.Content{
		URL:       "file://" + filepath.ToSlash(abs),
		Body:      body,
		FetchedAt: time.Now(),
		Kind:      fetcher.DetectKind("", body, arg),
	}
	if content.Kind == fetcher.KindHTML {
		content.HTML = string(body)
		if err := fetcher.ParseHTML(&content); err != nil {
			return content, fmt.Errorf("parsing %s: %w", arg, err)
		}
	}
	return content, nil
}

// loadPDF loads a PDF from a file or URL.
func loadPDF(ctx context.Context, cfg *config.Config, arg string) (*pdftext.Document, error) {
	if !isURL(arg) {
		doc, err := pdftext.Open(arg)
		if err != nil {
			logger.Error("failed to open pdf", "path", arg, "error", err)
		}
		return doc, err
	}

	content, err := loadSource(ctx, cfg, arg)
	if err != nil {
		return nil, err
	}
	if content.Kind != fetcher.KindPDF {
		return nil, fmt.Errorf("%s is not a PDF (got %s)", arg, content.Kind)
	}
	return pdftext.Load(content.Body)
}
