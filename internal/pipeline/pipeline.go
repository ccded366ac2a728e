// Package pipeline crawls seed pages, follows document links and turns every
// fetched document into cleaned tables.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/jmylchreest/docsift/internal/logger"
	"github.com/jmylchreest/docsift/pkg/cleaner"
	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/htmltable"
	"github.com/jmylchreest/docsift/pkg/links"
	"github.com/jmylchreest/docsift/pkg/pdftext"
	"github.com/jmylchreest/docsift/pkg/schema"
	"github.com/jmylchreest/docsift/pkg/table"
)

// Config holds pipeline configuration.
type Config struct {
	// Link following. A nil Links disables it.
	Links    *links.Selector
	MaxDepth int // 0 = seeds only, 1 = seeds + direct links

	// Limits
	MaxDocuments int // 0 = unlimited

	// Rate limiting
	Delay       time.Duration
	Concurrency int

	FetchOptions fetcher.Options

	// Extraction and cleaning
	HTMLTables    htmltable.Options
	PDFTables     pdftext.Options
	Clean         table.Options
	Schema        *schema.Schema
	DropUnmatched bool            // drop tables the schema does not match
	TextCleaner   cleaner.Cleaner // nil skips text output

	// RawDir receives a copy of every fetched body when set.
	RawDir string

	Metrics *Metrics

	// RunID labels log lines; a random UUID is used when empty.
	RunID string
}

// DefaultConfig returns sensible pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:    1,
		Delay:       200 * time.Millisecond,
		Concurrency: 2,
		Clean:       table.DefaultOptions(),
	}
}

// Pipeline orchestrates fetching, link following and table extraction.
type Pipeline struct {
	fetcher fetcher.Fetcher
	config  Config
	cleaner *table.Cleaner
	runID   string

	mu     sync.Mutex
	hashes map[uint64]string // body hash -> first URL
}

// New creates a pipeline.
func New(f fetcher.Fetcher, cfg Config) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Pipeline{
		fetcher: f,
		config:  cfg,
		cleaner: table.NewCleaner(cfg.Clean),
		runID:   cfg.RunID,
		hashes:  make(map[uint64]string),
	}
}

// RunID identifies this pipeline's run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run processes seeds and streams one Result per document. The channel is
// closed when the crawl is exhausted, MaxDocuments is reached or ctx ends.
func (p *Pipeline) Run(ctx context.Context, seeds []string) <-chan Result {
	results := make(chan Result, 100)

	go func() {
		defer close(results)
		p.run(ctx, seeds, results)
	}()

	return results
}

func (p *Pipeline) run(ctx context.Context, seeds []string, results chan<- Result) {
	log := logger.With("run_id", p.runID)
	log.Debug("pipeline starting",
		"seeds", len(seeds),
		"max_depth", p.config.MaxDepth,
		"max_documents", p.config.MaxDocuments,
		"concurrency", p.config.Concurrency,
		"delay", p.config.Delay)

	queue := links.NewQueue()
	for _, seed := range seeds {
		if !queue.Add(seed, 0) {
			log.Warn("skipping seed", "url", seed)
			continue
		}
		log.Info("seed", "url", seed)
	}

	processed := 0
	sem := make(chan struct{}, p.config.Concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}

		if p.config.MaxDocuments > 0 && processed >= p.config.MaxDocuments {
			log.Debug("pipeline reached document limit", "max_documents", p.config.MaxDocuments)
			wg.Wait()
			return
		}

		item, ok := queue.Pop()
		if !ok {
			// In-flight documents may still add links.
			wg.Wait()
			if queue.Len() == 0 {
				return
			}
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)

		go func(item links.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			if p.config.Delay > 0 {
				select {
				case <-time.After(p.config.Delay):
				case <-ctx.Done():
					return
				}
			}

			r := p.process(ctx, item, queue)
			p.config.Metrics.observe(r)

			select {
			case results <- r:
			case <-ctx.Done():
			}
		}(item)

		processed++
	}
}

// firstSeen records the body hash and returns the URL that first produced
// it, or "" when this is the first time.
func (p *Pipeline) firstSeen(sum uint64, url string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.hashes[sum]; ok {
		return prev
	}
	p.hashes[sum] = url
	return ""
}

func hashBody(body []byte) (uint64, string) {
	sum := xxhash.Sum64(body)
	return sum, fmt.Sprintf("%016x", sum)
}
