package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendLog_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.csv")

	first := LogEntry{
		Date:           "2025-10-24",
		Version:        "1.0.0",
		DOI:            "10.5281/zenodo.1",
		ManifestDigest: "abc123",
		Tag:            "v1.0.0",
		BuildDir:       "/tmp/builds/2025-10-24_1.0.0",
	}
	second := first
	second.Version = "1.0.1"
	second.Tag = "v1.0.1"

	if err := AppendLog(path, first); err != nil {
		t.Fatalf("AppendLog() error = %v", err)
	}
	if err := AppendLog(path, second); err != nil {
		t.Fatalf("AppendLog() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want header plus 2 rows:\n%s", len(lines), data)
	}
	if lines[0] != "date,version,doi,manifest_digest,tag,build_dir" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "date,version") != 1 {
		t.Error("header written more than once")
	}
}

func TestReadLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.csv")

	entry := LogEntry{
		Date:           "2025-10-24",
		Version:        "1.0.0",
		DOI:            "not_configured",
		ManifestDigest: "abc123",
		Tag:            "v1.0.0",
		BuildDir:       "/b/2025-10-24_1.0.0",
	}
	if err := AppendLog(path, entry); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0] != entry {
		t.Errorf("entry = %+v, want %+v", entries[0], entry)
	}
}

func TestReadLog_Missing(t *testing.T) {
	entries, err := ReadLog(filepath.Join(t.TempDir(), "releases.csv"))
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil for missing log", entries)
	}
}
