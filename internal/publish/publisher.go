// Package publish releases a verified artifact set: it copies integrity
// metadata into the public git store, tags the release, reserves a DOI
// with the registry, and records the release in the append-only log.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abba-01/uha-release/internal/artifact"
	"github.com/abba-01/uha-release/internal/config"
	"github.com/abba-01/uha-release/internal/git"
	"github.com/abba-01/uha-release/internal/registry"
)

// ErrChecksumMismatch aborts a publish before anything is written:
// metadata must describe the bytes currently on disk.
var ErrChecksumMismatch = errors.New("checksum record does not match artifact bytes")

// depositionCreator is the fixed author entry for registry depositions.
const depositionCreator = "All Your Baseline LLC"

// Publisher releases artifact sets to the public store and the DOI
// registry.
type Publisher struct {
	Layout   config.Layout
	Config   *config.Config
	Registry *registry.Client
	Clock    artifact.Clock

	// Progress receives narrative output; nil silences it.
	Progress io.Writer
}

// Result summarizes a completed publish.
type Result struct {
	Set      *artifact.Set
	Tag      string
	Commit   string
	Pushed   bool
	Registry registry.Result
	Digest   string
}

// NewPublisher wires a publisher from the loaded configuration.
func NewPublisher(layout config.Layout, cfg *config.Config, progress io.Writer) *Publisher {
	return &Publisher{
		Layout:   layout,
		Config:   cfg,
		Registry: registry.NewClient(cfg.Registry.BaseURL, cfg.Tokens.Zenodo),
		Clock:    artifact.RealClock{},
		Progress: progress,
	}
}

// Publish releases the artifact set for version. The git store is the
// load-bearing half: store failures are fatal, registry failures
// degrade to a pending outcome. The release log is written last, so a
// fatal error leaves it untouched.
func (p *Publisher) Publish(ctx context.Context, version string) (*Result, error) {
	if version == "" {
		return nil, artifact.ErrEmptyVersion
	}

	set, err := artifact.Locate(p.Layout.BuildsDir(), version)
	if err != nil {
		return nil, err
	}
	p.progressf("Publishing %s from %s\n", version, set.Dir)

	manifest, err := artifact.ReadManifest(set)
	if err != nil {
		return nil, err
	}
	manifestBytes, err := os.ReadFile(set.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	digest, err := artifact.Digest(manifestBytes)
	if err != nil {
		return nil, fmt.Errorf("digest manifest: %w", err)
	}

	if err := p.verifyChecksums(set); err != nil {
		return nil, err
	}

	result := &Result{
		Set:    set,
		Tag:    "v" + version,
		Digest: digest,
	}

	store := NewStore(p.Layout.StoreDir(p.Config))
	if err := p.publishToStore(ctx, store, set, manifest, result); err != nil {
		return nil, err
	}

	result.Registry = p.publishToRegistry(ctx, store, set, manifest)

	now := p.Clock.Now().UTC()
	entry := LogEntry{
		Date:           now.Format("2006-01-02"),
		Version:        version,
		DOI:            logDOI(result.Registry),
		ManifestDigest: digest,
		Tag:            result.Tag,
		BuildDir:       set.Dir,
	}
	if err := AppendLog(p.Layout.ReleaseLog(), entry); err != nil {
		return nil, err
	}
	p.progressf("Recorded release in %s\n", p.Layout.ReleaseLog())

	return result, nil
}

// verifyChecksums re-verifies the checksum record against current bytes.
// This is a lighter gate than the full check battery, which remains the
// operator's responsibility to run before publishing.
func (p *Publisher) verifyChecksums(set *artifact.Set) error {
	record, err := artifact.ReadChecksums(set.ChecksumsPath())
	if err != nil {
		return err
	}
	mismatches := record.Verify(set.Dir)
	if len(mismatches) > 0 {
		for _, m := range mismatches {
			p.progressf("  checksum mismatch: %s\n", m)
		}
		return fmt.Errorf("%w: %d file(s) changed since build", ErrChecksumMismatch, len(mismatches))
	}
	return nil
}

func (p *Publisher) publishToStore(ctx context.Context, store *Store, set *artifact.Set, m *artifact.Manifest, result *Result) error {
	if err := store.Ensure(ctx); err != nil {
		return err
	}

	files, err := store.StageRelease(set, m)
	if err != nil {
		return err
	}
	if err := store.Git.Stage(ctx, files...); err != nil {
		return err
	}

	hash, err := store.Git.Commit(ctx, fmt.Sprintf("Release %s metadata", set.Version))
	if errors.Is(err, git.ErrNothingToCommit) {
		p.progressf("Store already holds %s metadata, nothing to commit\n", set.Version)
		hash, err = store.Git.GetHeadCommit(ctx)
	}
	if err != nil {
		return err
	}
	result.Commit = hash
	p.progressf("Committed %s to store (%s)\n", set.Version, shortHash(hash))

	tagMsg := fmt.Sprintf("UHA Official %s - integrity metadata release", set.Version)
	err = store.Git.CreateTag(ctx, result.Tag, tagMsg)
	if errors.Is(err, git.ErrTagExists) {
		p.progressf("Tag %s already exists, leaving it in place\n", result.Tag)
	} else if err != nil {
		return err
	} else {
		p.progressf("Tagged %s\n", result.Tag)
	}

	result.Pushed = p.push(ctx, store, result.Tag)
	return nil
}

// push sends the branch and tag upstream. A missing token or remote
// skips the push; a failed push warns but does not abort the release,
// since the local store and log still record it.
func (p *Publisher) push(ctx context.Context, store *Store, tag string) bool {
	remote := p.Config.Publish.Remote
	if remote == "" {
		p.progressf("No remote configured, skipping push\n")
		return false
	}
	if p.Config.Tokens.GitHub == "" {
		p.progressf("Warning: no GitHub token, skipping push to %s\n", remote)
		return false
	}

	if err := store.Git.EnsureRemote(ctx, "origin", remote); err != nil {
		p.progressf("Warning: %v\n", err)
		return false
	}
	err := store.Git.Push(ctx, "origin", p.Config.Publish.Branch, tag, p.Config.Tokens.GitHub)
	if err != nil {
		p.progressf("Warning: push failed: %v\n", err)
		return false
	}
	p.progressf("Pushed %s and %s to %s\n", p.Config.Publish.Branch, tag, remote)
	return true
}

// publishToRegistry creates a draft deposition with the store's metadata
// copies. The deposition is never finalized here; making the DOI
// resolvable is a manual operator action.
func (p *Publisher) publishToRegistry(ctx context.Context, store *Store, set *artifact.Set, m *artifact.Manifest) registry.Result {
	meta := registry.Metadata{
		Title: fmt.Sprintf("UHA Official %s", set.Version),
		Description: fmt.Sprintf(
			"Integrity metadata for UHA Official %s, released %s. Protected under patent %s.",
			set.Version, m.BuildDate, m.Patent),
		Creators: []registry.Creator{{Name: depositionCreator}},
	}
	files := []string{
		filepath.Join(store.Dir, ManifestName(set.Version)),
		filepath.Join(store.Dir, ChecksumsName(set.Version)),
	}

	result := p.Registry.Deposit(ctx, meta, files...)
	switch result.Outcome {
	case registry.OutcomeNotConfigured:
		p.progressf("No registry token, skipping DOI deposition\n")
	case registry.OutcomePending:
		p.progressf("Warning: DOI deposition incomplete (%s), marked pending\n", result.Detail)
	case registry.OutcomeReserved:
		p.progressf("Reserved DOI %s (deposition %d, draft)\n", result.DOI, result.DepositionID)
	}
	return result
}

// logDOI chooses the DOI column value: the reserved DOI when one
// exists, otherwise the outcome so the log shows why none was recorded.
func logDOI(r registry.Result) string {
	if r.DOI != "" {
		return r.DOI
	}
	return string(r.Outcome)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func (p *Publisher) progressf(format string, args ...interface{}) {
	if p.Progress != nil {
		fmt.Fprintf(p.Progress, format, args...)
	}
}
