package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/cache"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "nas.csv", "State,District,Score\nKerala,Ernakulam,74.5\nKerala,Kozhikode,68.2\n")

	l := New(nil, cache.NewMemoryProvider(), ',')
	defer l.Close()

	table, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(table.Header) != 3 {
		t.Fatalf("header = %v, want 3 columns", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Fingerprint == 0 {
		t.Fatalf("fingerprint not computed")
	}
}

func TestLoadSkipsBlankRows(t *testing.T) {
	path := writeFile(t, "nas.csv", "State,District,Score\n\nKerala,Ernakulam,74.5\n,,\n")

	l := New(nil, cache.NoopProvider{}, ',')
	table, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 after blank-row filtering", len(table.Rows))
	}
}

func TestLoadCachesByFingerprint(t *testing.T) {
	path := writeFile(t, "nas.csv", "State,District,Score\nKerala,Ernakulam,74.5\n")

	l := New(nil, cache.NewMemoryProvider(), ',')
	defer l.Close()

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Fatalf("unchanged content should return the cached table")
	}
}

func TestLoadReparsesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nas.csv")
	if err := os.WriteFile(path, []byte("State,District,Score\nKerala,Ernakulam,74.5\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	l := New(nil, cache.NewMemoryProvider(), ',')
	defer l.Close()

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	if err := os.WriteFile(path, []byte("State,District,Score\nKerala,Ernakulam,80.0\n"), 0o600); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first.Fingerprint == second.Fingerprint {
		t.Fatalf("fingerprint should change with content")
	}
	if second.Rows[0][2] != "80.0" {
		t.Fatalf("stale table served after content change")
	}
}

func TestLoadInvalidate(t *testing.T) {
	path := writeFile(t, "nas.csv", "State,District,Score\nKerala,Ernakulam,74.5\n")

	l := New(nil, cache.NewMemoryProvider(), ',')
	defer l.Close()

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	l.Invalidate(path)
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first == second {
		t.Fatalf("invalidate should force a re-parse")
	}
}

func TestLoadErrors(t *testing.T) {
	l := New(nil, cache.NoopProvider{}, ',')

	cases := []struct {
		name    string
		content string
	}{
		{"empty.csv", ""},
		{"whitespace.csv", "   \n \n"},
		{"headeronly.csv", "State,District,Score\n"},
	}
	for _, tc := range cases {
		path := writeFile(t, tc.name, tc.content)
		_, err := l.Load(path)
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("%s: expected LoadError, got %v", tc.name, err)
		}
	}

	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("missing file should error")
	}
}

func TestLoadSemicolonDelimiter(t *testing.T) {
	path := writeFile(t, "nas.csv", "State;District;Score\nKerala;Ernakulam;74,5\n")

	l := New(nil, cache.NoopProvider{}, ';')
	table, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(table.Header) != 3 || table.Rows[0][1] != "Ernakulam" {
		t.Fatalf("semicolon parse failed: %v %v", table.Header, table.Rows)
	}
}
