package publish

import (
	"encoding/csv"
	"fmt"
	"os"
)

// logHeader is the fixed column set of the release log. Existing logs
// are never rewritten; the header is only emitted when the file is
// created.
var logHeader = []string{"date", "version", "doi", "manifest_digest", "tag", "build_dir"}

// LogEntry is one row of the append-only release log. Re-publishing a
// version appends another row rather than replacing the old one.
type LogEntry struct {
	Date           string
	Version        string
	DOI            string
	ManifestDigest string
	Tag            string
	BuildDir       string
}

// AppendLog appends an entry to the CSV release log at path, creating
// the file with its header on first use.
func AppendLog(path string, entry LogEntry) error {
	_, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open release log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write release log header: %w", err)
		}
	}
	row := []string{
		entry.Date,
		entry.Version,
		entry.DOI,
		entry.ManifestDigest,
		entry.Tag,
		entry.BuildDir,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write release log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush release log: %w", err)
	}
	return nil
}

// ReadLog parses the release log into entries, skipping the header.
// A missing log yields no entries.
func ReadLog(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open release log: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse release log: %w", err)
	}

	var entries []LogEntry
	for i, rec := range records {
		if i == 0 || len(rec) < 6 {
			continue
		}
		entries = append(entries, LogEntry{
			Date:           rec[0],
			Version:        rec[1],
			DOI:            rec[2],
			ManifestDigest: rec[3],
			Tag:            rec[4],
			BuildDir:       rec[5],
		})
	}
	return entries, nil
}
