package commands

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/internal/output"
	"github.com/jmylchreest/docsift/pkg/cleaner"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/pdftext"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a document and print its metadata",
	Long: `Download a page or document into a directory and print what was fetched.

With --clean the document text is also written next to the download. HTML
goes through the named cleaners (readability, trafilatura, markdown, or a
comma-separated chain); PDF text goes through the text cleaner.

Examples:
  docsift fetch "https://example.com/reports/q1.pdf" --dir downloads
  docsift fetch "https://example.com/article" --clean readability,markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.String("dir", ".", "directory to save the document in")
	flags.String("clean", "", "also save cleaned text using these cleaners (e.g. readability,markdown)")
	flags.String("format", "yaml", "metadata format: json, yaml")
}

// fetchMetadata describes a downloaded document.
type fetchMetadata struct {
	URL         string       `json:"url" yaml:"url"`
	Path        string       `json:"path" yaml:"path"`
	Kind        fetcher.Kind `json:"kind" yaml:"kind"`
	Status      int          `json:"status" yaml:"status"`
	ContentType string       `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Size        string       `json:"size" yaml:"size"`
	Bytes       int          `json:"bytes" yaml:"bytes"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Links       int          `json:"links,omitempty" yaml:"links,omitempty"`
	Pages       int          `json:"pages,omitempty" yaml:"pages,omitempty"`
	CleanedPath string       `json:"cleaned_path,omitempty" yaml:"cleaned_path,omitempty"`
	FetchedAt   string       `json:"fetched_at" yaml:"fetched_at"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := setup()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")

	path, content, err := fetcher.Download(ctx, f, args[0], dir)
	if err != nil {
		logger.Error("download failed", "url", args[0], "error", err)
		return err
	}

	meta := fetchMetadata{
		URL:         content.URL,
		Path:        path,
		Kind:        content.Kind,
		Status:      content.StatusCode,
		ContentType: content.ContentType,
		Size:        humanize.Bytes(uint64(len(content.Body))),
		Bytes:       len(content.Body),
		Title:       content.Title,
		Links:       len(content.Links),
		FetchedAt:   content.FetchedAt.Format(time.RFC3339),
	}

	var doc *pdftext.Document
	if content.Kind == fetcher.KindPDF {
		if doc, err = pdftext.Load(content.Body); err != nil {
			logger.Warn("could not read pdf", "path", path, "error", err)
		} else {
			meta.Pages = doc.NumPages()
		}
	}

	if spec, _ := flags.GetString("clean"); spec != "" {
		cleanedPath, err := saveCleaned(spec, path, content, doc)
		if err != nil {
			logger.Error("cleaning failed", "cleaners", spec, "error", err)
			return err
		}
		meta.CleanedPath = cleanedPath
	}

	formatStr, _ := flags.GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	writer, err := output.NewWriter(os.Stdout, format)
	if err != nil {
		return err
	}
	if err := writer.Write(meta); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// saveCleaned cleans the document text and writes it beside path. HTML
// input goes through the cleaners named in spec; PDF text always goes
// through the text cleaner first.
func saveCleaned(spec, path string, content fetcher.Content, doc *pdftext.Document) (string, error) {
	var input string
	switch {
	case content.Kind == fetcher.KindHTML:
		input = content.HTML
	case doc != nil:
		text, err := doc.Text()
		if err != nil {
			return "", err
		}
		input = text
		if !strings.Contains(spec, cleaner.NameText) {
			spec = cleaner.NameText + "," + spec
		}
	default:
		input = string(content.Body)
	}

	c, err := cleaner.New(spec, content.URL)
	if err != nil {
		return "", err
	}
	cleaned, err := c.Clean(input)
	if err != nil {
		return "", err
	}

	ext := ".txt"
	if strings.Contains(spec, cleaner.NameMarkdown) {
		ext = ".md"
	}
	dest := strings.TrimSuffix(path, filepath.Ext(path)) + ext
	if err := os.WriteFile(dest, []byte(cleaned), 0o644); err != nil { //#nosec G306 -- cleaned public documents
		return "", err
	}
	logger.Debug("saved cleaned text", "path", dest, "cleaner", c.Name(), "bytes", len(cleaned))
	return dest, nil
}
