package artifact

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// checksumPrefix tags each line with the digest algorithm.
const checksumPrefix = "sha256:"

// ErrChecksumsMissing indicates the checksum record is absent.
var ErrChecksumsMissing = errors.New("checksum record not found")

// ChecksumEntry is one recorded digest.
type ChecksumEntry struct {
	Name   string
	Digest string
}

// ChecksumRecord maps artifact file names to sha256 digests, in the order
// they were recorded.
type ChecksumRecord struct {
	Entries []ChecksumEntry
}

// Mismatch describes one artifact whose current bytes do not match the
// recorded digest.
type Mismatch struct {
	Name     string
	Expected string
	Actual   string // empty if the file could not be read
	Reason   string // set when the failure is not a plain digest difference
}

func (m Mismatch) String() string {
	if m.Reason != "" {
		return fmt.Sprintf("%s: %s", m.Name, m.Reason)
	}
	return fmt.Sprintf("%s: expected %s, got %s", m.Name, m.Expected, m.Actual)
}

// ComputeChecksums hashes the named files inside dir and returns a record
// in the given order.
func ComputeChecksums(dir string, names []string) (*ChecksumRecord, error) {
	record := &ChecksumRecord{}
	for _, name := range names {
		digest, err := hashFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", name, err)
		}
		record.Entries = append(record.Entries, ChecksumEntry{Name: name, Digest: digest})
	}
	return record, nil
}

// WriteChecksums writes the record in the toolkit's digest-manifest format:
// one "sha256:<hex>  <name>" line per artifact.
func WriteChecksums(path string, record *ChecksumRecord) error {
	var sb strings.Builder
	for _, entry := range record.Entries {
		sb.WriteString(checksumPrefix)
		sb.WriteString(entry.Digest)
		sb.WriteString("  ")
		sb.WriteString(entry.Name)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write checksum record: %w", err)
	}
	return nil
}

// ReadChecksums parses a checksum record. Lines may carry the "sha256:"
// prefix or be bare "<hex>  <name>" pairs, so sha256sum output verifies
// unmodified. Lines without two fields are skipped.
func ReadChecksums(path string) (*ChecksumRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrChecksumsMissing, path)
		}
		return nil, fmt.Errorf("open checksum record: %w", err)
	}
	defer file.Close()

	record := &ChecksumRecord{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		digest := strings.TrimPrefix(parts[0], checksumPrefix)
		record.Entries = append(record.Entries, ChecksumEntry{
			Name:   parts[1],
			Digest: digest,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan checksum record: %w", err)
	}
	return record, nil
}

// Verify recomputes every recorded digest against the file's current bytes
// in dir. It returns one Mismatch per failing entry; an unreadable file is
// a mismatch, not an error, so one corrupt artifact does not hide another.
func (r *ChecksumRecord) Verify(dir string) []Mismatch {
	var mismatches []Mismatch
	for _, entry := range r.Entries {
		actual, err := hashFile(filepath.Join(dir, entry.Name))
		if err != nil {
			mismatches = append(mismatches, Mismatch{
				Name:     entry.Name,
				Expected: entry.Digest,
				Reason:   fmt.Sprintf("cannot read file: %v", err),
			})
			continue
		}
		if !strings.EqualFold(actual, entry.Digest) {
			mismatches = append(mismatches, Mismatch{
				Name:     entry.Name,
				Expected: entry.Digest,
				Actual:   actual,
			})
		}
	}
	return mismatches
}

// hashFile calculates the sha256 hex digest of a file.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
