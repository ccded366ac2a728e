package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"Annual Report (2024).pdf", "Annual_Report_2024_.pdf"},
		{"../../etc/passwd", "etc_passwd"},
		{".hidden", "hidden"},
		{"  ", "unnamed"},
		{"名前.csv", "csv"},
	}
	for _, tt := range tests {
		if got := SafeFilename(tt.in); got != tt.want {
			t.Errorf("SafeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeFilename_TruncatesKeepingExtension(t *testing.T) {
	got := SafeFilename(strings.Repeat("a", 300) + ".pdf")
	if len(got) != MaxFilenameLength {
		t.Errorf("expected length %d, got %d", MaxFilenameLength, len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("expected .pdf suffix, got %q", got[len(got)-8:])
	}
}

func TestRun_CreatesLayout(t *testing.T) {
	root := t.TempDir()
	w := New(root)
	at := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	r, err := w.Run(at, "run/1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := filepath.Join(root, "2024-05-06", "run_1"); r.Dir != want {
		t.Errorf("Dir = %q, want %q", r.Dir, want)
	}
	for _, d := range []string{r.Raw, r.Tables, r.Reports} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", d)
		}
	}
}

func TestCopyAndMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	copied := filepath.Join(dir, "nested", "b.txt")
	if err := CopyFile(src, copied); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if data, _ := os.ReadFile(copied); string(data) != "hello" {
		t.Errorf("copied content = %q", data)
	}

	moved := filepath.Join(dir, "moved", "c.txt")
	if err := MoveFile(src, moved); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("expected source removed after move")
	}
	if data, _ := os.ReadFile(moved); string(data) != "hello" {
		t.Errorf("moved content = %q", data)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	if err := CopyFile(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.csv")
	if got := UniquePath(p); got != p {
		t.Errorf("UniquePath() = %q, want %q", got, p)
	}
	if err := os.WriteFile(p, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if got := UniquePath(p); got != filepath.Join(dir, "out-2.csv") {
		t.Errorf("UniquePath() = %q", got)
	}
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02", "notes"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w := New(root)
	removed, err := w.Prune(1)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if want := []string{"2024-01-01", "2024-01-02"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}

	days, _ := w.Days()
	if !reflect.DeepEqual(days, []string{"2024-01-03"}) {
		t.Errorf("remaining days = %v", days)
	}
	if _, err := os.Stat(filepath.Join(root, "notes")); err != nil {
		t.Error("non-date directory should be kept")
	}
}

func TestPrune_MissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"))
	removed, err := w.Prune(3)
	if err != nil || removed != nil {
		t.Errorf("Prune() on missing root = %v, %v", removed, err)
	}
}
