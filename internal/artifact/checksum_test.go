package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChecksumRoundTrip(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.whl", "b.whl"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	record, err := ComputeChecksums(dir, names)
	if err != nil {
		t.Fatalf("ComputeChecksums failed: %v", err)
	}
	if len(record.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(record.Entries))
	}

	path := filepath.Join(dir, ChecksumsFile)
	if err := WriteChecksums(path, record); err != nil {
		t.Fatalf("WriteChecksums failed: %v", err)
	}

	// Each line is algorithm-prefixed.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if !strings.HasPrefix(line, "sha256:") {
			t.Errorf("line not algorithm-prefixed: %q", line)
		}
	}

	got, err := ReadChecksums(path)
	if err != nil {
		t.Fatalf("ReadChecksums failed: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("read entries: got %d, want 2", len(got.Entries))
	}
	for i, entry := range got.Entries {
		if entry != record.Entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, entry, record.Entries[i])
		}
	}
}

func TestReadChecksums_BareSha256sumFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checksums.sha256")
	line := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824  hello.whl\n"
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		t.Fatalf("write record: %v", err)
	}

	record, err := ReadChecksums(path)
	if err != nil {
		t.Fatalf("ReadChecksums failed: %v", err)
	}
	if len(record.Entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(record.Entries))
	}
	if record.Entries[0].Name != "hello.whl" {
		t.Errorf("name: got %q", record.Entries[0].Name)
	}
}

func TestReadChecksums_Missing(t *testing.T) {
	_, err := ReadChecksums(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrChecksumsMissing) {
		t.Fatalf("got %v, want ErrChecksumsMissing", err)
	}
}

func TestVerify_CleanSet(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.whl"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	record, err := ComputeChecksums(dir, []string{"a.whl"})
	if err != nil {
		t.Fatalf("ComputeChecksums failed: %v", err)
	}

	if mismatches := record.Verify(dir); len(mismatches) != 0 {
		t.Errorf("Verify on untouched set: got %v, want none", mismatches)
	}
}

func TestVerify_SingleByteMutation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.whl"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	record, err := ComputeChecksums(dir, []string{"a.whl"})
	if err != nil {
		t.Fatalf("ComputeChecksums failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.whl"), []byte("aab"), 0644); err != nil {
		t.Fatalf("mutate artifact: %v", err)
	}

	mismatches := record.Verify(dir)
	if len(mismatches) != 1 {
		t.Fatalf("mismatches: got %d, want 1", len(mismatches))
	}
	if mismatches[0].Name != "a.whl" || mismatches[0].Actual == "" {
		t.Errorf("mismatch: got %+v", mismatches[0])
	}
}

func TestVerify_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.whl"), []byte("aaa"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	record, err := ComputeChecksums(dir, []string{"a.whl"})
	if err != nil {
		t.Fatalf("ComputeChecksums failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "a.whl")); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}

	mismatches := record.Verify(dir)
	if len(mismatches) != 1 {
		t.Fatalf("mismatches: got %d, want 1", len(mismatches))
	}
	if mismatches[0].Reason == "" {
		t.Errorf("missing file should carry a reason: %+v", mismatches[0])
	}
}

func TestVerify_EmptyRecord(t *testing.T) {
	record := &ChecksumRecord{}
	if mismatches := record.Verify(t.TempDir()); mismatches != nil {
		t.Errorf("empty record: got %v, want nil", mismatches)
	}
}
