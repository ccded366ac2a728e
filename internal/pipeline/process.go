package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/htmltable"
	"github.com/jmylchreest/docsift/pkg/links"
	"github.com/jmylchreest/docsift/pkg/pdftext"
	"github.com/jmylchreest/docsift/pkg/table"
	"github.com/jmylchreest/docsift/pkg/workspace"
)

func (p *Pipeline) process(ctx context.Context, item links.Item, queue *links.Queue) Result {
	logger.Debug("pipeline processing document", "url", item.URL, "depth", item.Depth)

	fetchStart := time.Now()
	content, err := p.fetcher.Fetch(ctx, item.URL, p.config.FetchOptions)
	fetchDuration := time.Since(fetchStart)

	r := Result{
		URL:           item.URL,
		Depth:         item.Depth,
		FetchDuration: fetchDuration,
	}
	if err != nil {
		logger.Info("fetch failed", "url", item.URL, "error", err, "duration", fetchDuration.Round(time.Millisecond))
		r.Error = fmt.Errorf("fetch error: %w", err)
		return r
	}

	r.Kind = content.Kind
	r.FetchedAt = content.FetchedAt
	if content.URL != "" {
		r.URL = content.URL
	}

	sum, hex := hashBody(content.Body)
	r.Hash = hex
	if prev := p.firstSeen(sum, r.URL); prev != "" {
		logger.Info("duplicate document", "url", r.URL, "duplicate_of", prev)
		r.DuplicateOf = prev
		return r
	}

	if p.config.RawDir != "" {
		path, err := p.saveRaw(content)
		if err != nil {
			logger.Warn("saving raw document failed", "url", r.URL, "error", err)
		}
		r.RawPath = path
	}

	start := time.Now()
	tables, text, err := p.extract(content)
	if err != nil {
		logger.Info("extraction failed", "url", r.URL, "kind", r.Kind, "error", err)
		r.Error = fmt.Errorf("extraction error: %w", err)
	} else {
		r.Tables, r.Stats, r.Validation = p.clean(tables)
		r.Text = p.cleanText(r.URL, text)
	}
	r.ProcessDuration = time.Since(start)

	if r.Error == nil {
		logger.Info("processed",
			"url", r.URL,
			"kind", r.Kind,
			"tables", len(r.Tables),
			"rows", r.Stats.RowsOut,
			"issues", len(r.Validation),
			"fetch", fetchDuration.Round(time.Millisecond))
	}

	if p.config.Links != nil && item.Depth < p.config.MaxDepth && content.Kind == fetcher.KindHTML {
		r.Links = p.follow(content, item.Depth, queue)
	}

	return r
}

// extract returns the raw tables and plain text of a document.
func (p *Pipeline) extract(content fetcher.Content) ([]table.Table, string, error) {
	switch content.Kind {
	case fetcher.KindHTML:
		opts := p.config.HTMLTables
		opts.Source = content.URL
		tables, err := htmltable.Extract(content.HTML, opts)
		if err != nil {
			return nil, "", err
		}
		return tables, content.HTML, nil

	case fetcher.KindPDF:
		doc, err := pdftext.Load(content.Body)
		if err != nil {
			return nil, "", err
		}
		opts := p.config.PDFTables
		opts.Source = content.URL
		tables, err := doc.Tables(opts)
		if err != nil {
			return nil, "", err
		}
		text, err := doc.Text()
		if err != nil {
			logger.Debug("pdf text extraction failed", "url", content.URL, "error", err)
		}
		return tables, text, nil

	default:
		logger.Debug("no extractor for document kind", "url", content.URL, "kind", content.Kind)
		return nil, "", nil
	}
}

// clean runs the table cleaner and, when configured, the schema over every
// table.
func (p *Pipeline) clean(tables []table.Table) ([]table.Table, table.Stats, []Issue) {
	var (
		out    []table.Table
		total  table.Stats
		issues []Issue
	)

	for _, t := range tables {
		cleaned, stats := p.cleaner.Clean(t)
		total.Add(stats)

		if s := p.config.Schema; s != nil {
			if !s.Matches(cleaned) {
				if p.config.DropUnmatched {
					logger.Debug("dropping table not matching schema", "table", cleaned.Name, "schema", s.Name)
					continue
				}
				out = append(out, cleaned)
				continue
			}
			var errs []Issue
			cleaned, errs = p.applySchema(cleaned)
			issues = append(issues, errs...)
		}

		out = append(out, cleaned)
	}

	return out, total, issues
}

func (p *Pipeline) applySchema(t table.Table) (table.Table, []Issue) {
	applied, errs := p.config.Schema.Apply(t)
	issues := make([]Issue, len(errs))
	for i, e := range errs {
		issues[i] = Issue{Table: t.Name, ValidationError: e}
	}
	return applied, issues
}

func (p *Pipeline) cleanText(url, text string) string {
	if p.config.TextCleaner == nil || text == "" {
		return ""
	}
	cleaned, err := p.config.TextCleaner.Clean(text)
	if err != nil {
		logger.Debug("text cleaning failed", "url", url, "cleaner", p.config.TextCleaner.Name(), "error", err)
		return ""
	}
	return cleaned
}

func (p *Pipeline) follow(content fetcher.Content, depth int, queue *links.Queue) int {
	found, err := p.config.Links.Extract(content.HTML, content.URL)
	if err != nil {
		logger.Debug("pipeline link extraction failed", "url", content.URL, "error", err)
		return 0
	}

	added := 0
	for _, link := range found {
		if queue.Add(link, depth+1) {
			added++
		}
	}
	if added > 0 {
		logger.Info("following links", "from", content.URL, "count", added)
	}
	return added
}

// saveRaw writes the fetched body into RawDir under a unique name.
func (p *Pipeline) saveRaw(content fetcher.Content) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := workspace.Ensure(p.config.RawDir); err != nil {
		return "", err
	}
	path := workspace.UniquePath(filepath.Join(p.config.RawDir, fetcher.FileName(content.URL, content.Kind)))
	if err := os.WriteFile(path, content.Body, 0o644); err != nil { //#nosec G306 -- fetched public documents
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
