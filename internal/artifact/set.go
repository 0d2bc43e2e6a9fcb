package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Well-known file names inside an artifact set directory.
const (
	ManifestFile  = "manifest.json"
	ChecksumsFile = "checksums.sha256"
	SignatureFile = "checksums.sha256.asc"
	BuildInfoFile = "build_info.txt"
	SummaryFile   = "BUILD_SUMMARY.md"

	// WheelSuffix marks a real binary artifact.
	WheelSuffix = ".whl"
	// PlaceholderSuffix marks a stub written when no build backend is
	// configured. Placeholders are never checksummed or published.
	PlaceholderSuffix = ".whl.placeholder"
)

// Common artifact set errors.
var (
	ErrNoBuildFound   = errors.New("no build found for version")
	ErrAmbiguousBuild = errors.New("multiple builds found for version")
)

// Set is one versioned artifact set on disk.
type Set struct {
	Version string
	Dir     string
}

// SetDirName returns the directory name for a build of the given version
// on the given date.
func SetDirName(date time.Time, version string) string {
	return date.UTC().Format("2006-01-02") + "_" + version
}

// NewSet creates a Set handle for a build directory. It does not touch
// the filesystem.
func NewSet(buildsDir string, date time.Time, version string) *Set {
	return &Set{
		Version: version,
		Dir:     filepath.Join(buildsDir, SetDirName(date, version)),
	}
}

// Locate finds the unique artifact set for a version under buildsDir.
// Zero matches is ErrNoBuildFound; more than one is ErrAmbiguousBuild.
// Ambiguity is fatal rather than silently resolved: two directories for
// the same version means the operator has to clean up first.
func Locate(buildsDir, version string) (*Set, error) {
	entries, err := os.ReadDir(buildsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (no builds directory)", ErrNoBuildFound, version)
		}
		return nil, fmt.Errorf("read builds directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Directory names are <date>_<version>; the date contains no
		// underscore, so everything after the first one is the version.
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) == 2 && parts[1] == version {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoBuildFound, version)
	case 1:
		return &Set{Version: version, Dir: filepath.Join(buildsDir, matches[0])}, nil
	default:
		sort.Strings(matches)
		return nil, fmt.Errorf("%w: %s (%s)", ErrAmbiguousBuild, version, strings.Join(matches, ", "))
	}
}

// ManifestPath returns the path of the manifest record.
func (s *Set) ManifestPath() string { return filepath.Join(s.Dir, ManifestFile) }

// ChecksumsPath returns the path of the checksum record.
func (s *Set) ChecksumsPath() string { return filepath.Join(s.Dir, ChecksumsFile) }

// SignaturePath returns the path of the detached checksum signature.
func (s *Set) SignaturePath() string { return filepath.Join(s.Dir, SignatureFile) }

// BuildInfoPath returns the path of the build metadata record.
func (s *Set) BuildInfoPath() string { return filepath.Join(s.Dir, BuildInfoFile) }

// SummaryPath returns the path of the human-readable summary.
func (s *Set) SummaryPath() string { return filepath.Join(s.Dir, SummaryFile) }

// Artifacts returns the names of real binary artifacts in the set, sorted.
func (s *Set) Artifacts() ([]string, error) {
	return s.filesWithSuffix(WheelSuffix)
}

// Placeholders returns the names of placeholder artifacts in the set, sorted.
func (s *Set) Placeholders() ([]string, error) {
	return s.filesWithSuffix(PlaceholderSuffix)
}

// Files returns every regular file name in the set, sorted. Used by the
// permission audit, which inspects metadata and artifacts alike.
func (s *Set) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read artifact set: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// filesWithSuffix lists regular files ending in suffix.
func (s *Set) filesWithSuffix(suffix string) ([]string, error) {
	names, err := s.Files()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			out = append(out, name)
		}
	}
	return out, nil
}
