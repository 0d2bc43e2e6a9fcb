package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abba-01/uha-release/internal/artifact"
	"github.com/abba-01/uha-release/internal/git"
)

// Store file names.
const (
	readmeFile    = "README.md"
	gitignoreFile = ".gitignore"
)

// storeUser identifies release commits in the public store.
var storeUser = git.UserInfo{
	Name:  "UHA Release",
	Email: "releases@allyourbaseline.com",
}

// The store carries integrity metadata only. Binaries and credentials
// must never land in it, even by operator accident.
const storeGitignore = `# Binary artifacts are distributed through the package index, not here.
*.whl
*.placeholder

# Credentials never belong in the public store.
secrets/
*_token
`

const storeReadme = `# UHA Official Release Metadata Store

Public integrity metadata for UHA Official releases: manifests, checksum
records, and release notes. Binary artifacts are distributed separately.

Verify a download against the matching checksum record before use.
`

// Store manages the public metadata store directory and its git
// repository.
type Store struct {
	Dir string
	Git git.Git
}

// NewStore creates a store over the given directory.
func NewStore(dir string) *Store {
	return &Store{
		Dir: dir,
		Git: git.NewClient(dir),
	}
}

// Ensure makes the store directory a git repository, seeding the README,
// .gitignore, and an initial commit on first use. Calling it on an
// existing store only refreshes the repo-local author identity.
func (s *Store) Ensure(ctx context.Context) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	isRepo, err := s.Git.IsGitRepo(ctx)
	if err != nil {
		return err
	}

	if !isRepo {
		if err := s.Git.InitRepo(ctx); err != nil {
			return err
		}
		if err := s.Git.ConfigureUser(ctx, storeUser); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(s.Dir, readmeFile), []byte(storeReadme), 0644); err != nil {
			return fmt.Errorf("write store README: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.Dir, gitignoreFile), []byte(storeGitignore), 0644); err != nil {
			return fmt.Errorf("write store .gitignore: %w", err)
		}
		if err := s.Git.Stage(ctx, readmeFile, gitignoreFile); err != nil {
			return err
		}
		if _, err := s.Git.Commit(ctx, "Initialize release metadata store"); err != nil {
			return err
		}
		return nil
	}

	return s.Git.ConfigureUser(ctx, storeUser)
}

// ManifestName returns the versioned store name for a manifest copy.
func ManifestName(version string) string {
	return "uha-manifest-" + version + ".json"
}

// ChecksumsName returns the versioned store name for a checksum record
// copy.
func ChecksumsName(version string) string {
	return "uha-checksums-" + version + ".sha256"
}

// NotesName returns the store name for the release notes file.
func NotesName(version string) string {
	return "RELEASE_v" + version + ".md"
}

// StageRelease copies the set's metadata into the store under versioned
// names, writes the release notes, and returns the store-relative file
// names for staging. Binary artifacts are never copied.
func (s *Store) StageRelease(set *artifact.Set, m *artifact.Manifest) ([]string, error) {
	files := []string{
		ManifestName(set.Version),
		ChecksumsName(set.Version),
		NotesName(set.Version),
	}

	if err := copyFile(set.ManifestPath(), filepath.Join(s.Dir, files[0])); err != nil {
		return nil, fmt.Errorf("copy manifest into store: %w", err)
	}
	if err := copyFile(set.ChecksumsPath(), filepath.Join(s.Dir, files[1])); err != nil {
		return nil, fmt.Errorf("copy checksum record into store: %w", err)
	}
	if err := s.writeReleaseNotes(set, m, files[2]); err != nil {
		return nil, err
	}

	return files, nil
}

func (s *Store) writeReleaseNotes(set *artifact.Set, m *artifact.Manifest, name string) error {
	var b []byte
	b = append(b, fmt.Sprintf("# UHA Official %s\n\n", set.Version)...)
	b = append(b, fmt.Sprintf("Released %s. Protected under patent %s.\n\n", m.BuildDate, m.Patent)...)
	b = append(b, "## Install\n\n```\npip install uha-official=="+set.Version+"\n```\n\n"...)
	b = append(b, "## Integrity\n\n"...)
	b = append(b, fmt.Sprintf("- Manifest: `%s`\n", ManifestName(set.Version))...)
	b = append(b, fmt.Sprintf("- Checksums: `%s`\n\n", ChecksumsName(set.Version))...)
	b = append(b, "## Citation\n\n"...)
	b = append(b, fmt.Sprintf("All Your Baseline LLC (%s). UHA Official %s [Computer software].\n",
		m.BuildDate, set.Version)...)

	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write release notes: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
