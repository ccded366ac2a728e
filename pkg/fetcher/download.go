package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/workspace"
)

// Download fetches rawURL and writes the body into dir. The file name is
// derived from the URL path; an extension matching the detected kind is
// added when the path has none. Returns the written path.
func Download(ctx context.Context, f Fetcher, rawURL, dir string) (string, Content, error) {
	content, err := f.Fetch(ctx, rawURL, Options{})
	if err != nil {
		return "", content, err
	}

	if err := workspace.Ensure(dir); err != nil {
		return "", content, err
	}

	dest := filepath.Join(dir, FileName(content.URL, content.Kind))
	if err := os.WriteFile(dest, content.Body, 0o644); err != nil { //#nosec G306 -- downloaded public documents
		return "", content, fmt.Errorf("writing %s: %w", dest, err)
	}

	logger.Debug("downloaded document", "url", content.URL, "path", dest, "bytes", len(content.Body))
	return dest, content, nil
}

// FileName derives a safe local file name for a document URL.
func FileName(rawURL string, kind Kind) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "/" || base == "." {
		base = "index"
	}

	name := workspace.SafeFilename(base)
	if path.Ext(name) == "" {
		switch kind {
		case KindPDF:
			name += ".pdf"
		case KindHTML:
			name += ".html"
		default:
			name += ".bin"
		}
	}
	return name
}
