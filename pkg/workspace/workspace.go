// Package workspace manages the on-disk layout of docsift runs: dated run
// directories, safe file names and file copy/move helpers.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/docsift/internal/logger"
)

// DateLayout names the per-day directories under the workspace root.
const DateLayout = "2006-01-02"

// MaxFilenameLength bounds names produced by SafeFilename.
const MaxFilenameLength = 120

var unsafeRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Workspace is a directory tree of run outputs:
//
//	<root>/<YYYY-MM-DD>/<run-id>/{raw,tables,reports}
type Workspace struct {
	Root string
}

// New returns a workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// RunDir returns the directory for a run started at t.
func (w *Workspace) RunDir(t time.Time, runID string) string {
	return filepath.Join(w.Root, t.Format(DateLayout), SafeFilename(runID))
}

// Run creates the run directory and its standard subdirectories.
func (w *Workspace) Run(t time.Time, runID string) (Run, error) {
	dir := w.RunDir(t, runID)
	r := Run{
		Dir:     dir,
		Raw:     filepath.Join(dir, "raw"),
		Tables:  filepath.Join(dir, "tables"),
		Reports: filepath.Join(dir, "reports"),
	}
	for _, d := range []string{r.Raw, r.Tables, r.Reports} {
		if err := Ensure(d); err != nil {
			return Run{}, err
		}
	}
	return r, nil
}

// Run holds the directories of a single run.
type Run struct {
	Dir     string
	Raw     string
	Tables  string
	Reports string
}

// Ensure creates dir and any missing parents.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil { //#nosec G301 -- output directories are meant to be shared
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// SafeFilename replaces runs of characters outside [A-Za-z0-9._-] with a
// single underscore, strips leading dots and underscores, and truncates long names while
// keeping the extension.
func SafeFilename(name string) string {
	name = unsafeRe.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.TrimRight(strings.TrimLeft(name, "._"), "_")
	if name == "" {
		return "unnamed"
	}
	if len(name) <= MaxFilenameLength {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	return name[:MaxFilenameLength-len(ext)] + ext
}

// UniquePath returns path, or path with a -N suffix before the extension
// if path already exists.
func UniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// CopyFile copies src to dst, creating dst's directory and preserving the
// source file mode.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) //#nosec G304 -- caller-controlled paths
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if err := Ensure(filepath.Dir(dst)); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //#nosec G304
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy and delete when the
// rename crosses filesystems.
func MoveFile(src, dst string) error {
	if err := Ensure(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

// Days lists the dated directories under the root, oldest first.
func (w *Workspace) Days() ([]string, error) {
	entries, err := os.ReadDir(w.Root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", w.Root, err)
	}

	var days []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(DateLayout, e.Name()); err == nil {
			days = append(days, e.Name())
		}
	}
	sort.Strings(days)
	return days, nil
}

// Prune removes the oldest dated directories so at most keep remain.
// Directories that are not dates are never touched. Returns the removed
// directory names.
func (w *Workspace) Prune(keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	days, err := w.Days()
	if err != nil || len(days) <= keep {
		return nil, err
	}

	stale := days[:len(days)-keep]
	for _, d := range stale {
		if err := os.RemoveAll(filepath.Join(w.Root, d)); err != nil {
			return nil, fmt.Errorf("pruning %s: %w", d, err)
		}
		logger.Debug("pruned workspace day", "day", d)
	}
	return stale, nil
}
