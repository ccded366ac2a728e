package pipeline

import (
	"time"

	"github.com/jmylchreest/docsift/pkg/fetcher"
	"github.com/jmylchreest/docsift/pkg/schema"
	"github.com/jmylchreest/docsift/pkg/table"
)

// Result is the outcome of processing one document. Per-document failures
// are reported in Error and never stop the run.
type Result struct {
	URL             string
	Kind            fetcher.Kind
	Depth           int
	Tables          []table.Table
	Stats           table.Stats
	Validation      []Issue
	Text            string
	RawPath         string
	Hash            string // xxhash64 of the body, hex
	DuplicateOf     string // URL of an earlier document with the same body
	Links           int    // links queued from this document
	FetchedAt       time.Time
	FetchDuration   time.Duration
	ProcessDuration time.Duration
	Error           error
}

// Issue is a schema validation error tied to the table it came from.
type Issue struct {
	Table                  string `json:"table" yaml:"table"`
	schema.ValidationError `yaml:",inline"`
}

// Status summarises the result as ok, duplicate or error.
func (r Result) Status() string {
	switch {
	case r.Error != nil:
		return "error"
	case r.DuplicateOf != "":
		return "duplicate"
	default:
		return "ok"
	}
}

// Rows returns the number of data rows across all tables.
func (r Result) Rows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Len()
	}
	return n
}

// DocumentReport is the serialisable form of a Result.
type DocumentReport struct {
	URL         string       `json:"url" yaml:"url"`
	Kind        fetcher.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Depth       int          `json:"depth" yaml:"depth"`
	Status      string       `json:"status" yaml:"status"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Hash        string       `json:"hash,omitempty" yaml:"hash,omitempty"`
	DuplicateOf string       `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	RawPath     string       `json:"raw_path,omitempty" yaml:"raw_path,omitempty"`
	Tables      []string     `json:"tables,omitempty" yaml:"tables,omitempty"`
	Rows        int          `json:"rows" yaml:"rows"`
	Links       int          `json:"links,omitempty" yaml:"links,omitempty"`
	Stats       table.Stats  `json:"stats" yaml:"stats"`
	Issues      []Issue      `json:"issues,omitempty" yaml:"issues,omitempty"`
	FetchedAt   time.Time    `json:"fetched_at,omitzero" yaml:"fetched_at,omitempty"`
	FetchMS     int64        `json:"fetch_ms" yaml:"fetch_ms"`
	ProcessMS   int64        `json:"process_ms" yaml:"process_ms"`
}

// Report converts r for writing.
func (r Result) Report() DocumentReport {
	rep := DocumentReport{
		URL:         r.URL,
		Kind:        r.Kind,
		Depth:       r.Depth,
		Status:      r.Status(),
		Hash:        r.Hash,
		DuplicateOf: r.DuplicateOf,
		RawPath:     r.RawPath,
		Rows:        r.Rows(),
		Links:       r.Links,
		Stats:       r.Stats,
		Issues:      r.Validation,
		FetchedAt:   r.FetchedAt,
		FetchMS:     r.FetchDuration.Milliseconds(),
		ProcessMS:   r.ProcessDuration.Milliseconds(),
	}
	if r.Error != nil {
		rep.Error = r.Error.Error()
	}
	for _, t := range r.Tables {
		rep.Tables = append(rep.Tables, t.Name)
	}
	return rep
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
	Documents  int              `json:"documents" yaml:"documents"`
	Failed     int              `json:"failed" yaml:"failed"`
	Duplicates int              `json:"duplicates" yaml:"duplicates"`
	Tables     int              `json:"tables" yaml:"tables"`
	Rows       int              `json:"rows" yaml:"rows"`
	Issues     int              `json:"issues" yaml:"issues"`
	Stats      table.Stats      `json:"stats" yaml:"stats"`
	Results    []DocumentReport `json:"results" yaml:"results"`
}

// Add folds a result into the summary.
func (s *Summary) Add(r Result) {
	s.Documents++
	switch r.Status() {
	case "error":
		s.Failed++
	case "duplicate":
		s.Duplicates++
	}
	s.Tables += len(r.Tables)
	s.Rows += r.Rows()
	s.Issues += len(r.Validation)
	s.Stats.Add(r.Stats)
	s.Results = append(s.Results, r.Report())
}
