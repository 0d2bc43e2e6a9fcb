package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abba-01/uha-release/internal/config"
	"github.com/abba-01/uha-release/internal/platform"
	"github.com/abba-01/uha-release/internal/signing"
)

// ErrEmptyVersion indicates a build was requested without a version.
var ErrEmptyVersion = errors.New("version must not be empty")

// Producer builds one artifact set per invocation.
type Producer struct {
	Layout    config.Layout
	Config    *config.Config
	Backend   Backend
	Collector platform.Collector
	Clock     Clock

	// Progress receives the build narrative; nil discards it.
	Progress io.Writer
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	Set           *Set
	ArtifactCount int
	Placeholder   bool
	Signed        bool
}

// NewProducer wires a producer from configuration. The backend is chosen
// by NewBackend; the real host collector and clock are used.
func NewProducer(layout config.Layout, cfg *config.Config, progress io.Writer) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{
		Layout:    layout,
		Config:    cfg,
		Backend:   backend,
		Collector: platform.NewCollector(),
		Clock:     RealClock{},
		Progress:  progress,
	}, nil
}

// Build produces a complete artifact set for the version: one artifact per
// platform × python version, then the checksum record, optional signature,
// manifest, build record, and summary. It aborts on the first fatal error
// so a failed run never leaves a set that looks complete.
func (p *Producer) Build(ctx context.Context, version string) (*BuildResult, error) {
	if version == "" {
		return nil, ErrEmptyVersion
	}

	now := p.Clock.Now()
	set := NewSet(p.Layout.BuildsDir(), now, version)

	if err := os.MkdirAll(set.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create build directory: %w", err)
	}
	lock, err := AcquireBuildLock(set.Dir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	p.progressf("Build directory: %s", set.Dir)
	p.progressf("Backend: %s", p.Backend.Name())

	if err := p.buildArtifacts(ctx, set, version); err != nil {
		return nil, err
	}

	result := &BuildResult{Set: set}

	artifacts, err := set.Artifacts()
	if err != nil {
		return nil, err
	}
	result.ArtifactCount = len(artifacts)
	result.Placeholder = len(artifacts) == 0

	if result.Placeholder {
		p.progressf("Warning: no binary artifacts produced (placeholder mode); checksum record will be empty")
	}
	record, err := ComputeChecksums(set.Dir, artifacts)
	if err != nil {
		return nil, err
	}
	if err := WriteChecksums(set.ChecksumsPath(), record); err != nil {
		return nil, err
	}
	p.progressf("Checksum record: %d entries", len(record.Entries))

	signed, err := p.signChecksums(set)
	if err != nil {
		return nil, err
	}
	result.Signed = signed

	manifest := &Manifest{
		Version:        version,
		BuildDate:      now.UTC().Format("2006-01-02"),
		Patent:         p.Config.Project.Patent,
		Platforms:      p.Config.Build.Platforms,
		PythonVersions: p.Config.Build.PythonVersions,
		Config:         p.Config.Parameters,
	}
	if err := WriteManifest(set, manifest); err != nil {
		return nil, err
	}

	if err := p.writeBuildInfo(ctx, set, now); err != nil {
		return nil, err
	}
	if err := p.writeSummary(set, manifest, result); err != nil {
		return nil, err
	}

	return result, nil
}

// buildArtifacts runs the backend over the platform × python cross-product.
func (p *Producer) buildArtifacts(ctx context.Context, set *Set, version string) error {
	suffix := p.Backend.Suffix()
	for _, plat := range p.Config.Build.Platforms {
		for _, py := range p.Config.Build.PythonVersions {
			spec := BuildSpec{Version: version, Platform: plat, PythonVersion: py}

			data, err := p.Backend.Build(ctx, spec)
			if err != nil {
				return fmt.Errorf("build artifact: %w", err)
			}

			name := ArtifactName(spec) + suffix
			if err := os.WriteFile(filepath.Join(set.Dir, name), data, 0644); err != nil {
				return fmt.Errorf("write artifact %s: %w", name, err)
			}
			p.progressf("  built %s", name)
		}
	}
	return nil
}

// signChecksums signs the checksum record when a signing key is present
// in the secrets directory. No key means no signature, not an error.
func (p *Producer) signChecksums(set *Set) (bool, error) {
	keyPath := filepath.Join(p.Layout.SecretsDir(), signing.PrivateKeyFile)
	if _, err := os.Stat(keyPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat signing key: %w", err)
	}

	if err := signing.SignDetached(set.ChecksumsPath(), keyPath, set.SignaturePath()); err != nil {
		return false, err
	}
	p.progressf("Signed checksum record")
	return true, nil
}

// writeBuildInfo writes the free-text build metadata record.
func (p *Producer) writeBuildInfo(ctx context.Context, set *Set, now time.Time) error {
	snap, err := p.Collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect host info: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("UHA Official build record\n")
	sb.WriteString("=========================\n\n")
	fmt.Fprintf(&sb, "version:    %s\n", set.Version)
	fmt.Fprintf(&sb, "timestamp:  %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "host:       %s\n", snap.Hostname)
	fmt.Fprintf(&sb, "user:       %s\n", snap.User)
	fmt.Fprintf(&sb, "os:         %s/%s\n", snap.OS, snap.Arch)
	if snap.Platform != "" {
		fmt.Fprintf(&sb, "distro:     %s %s\n", snap.Platform, snap.Version)
	}
	if snap.Kernel != "" {
		fmt.Fprintf(&sb, "kernel:     %s\n", snap.Kernel)
	}
	fmt.Fprintf(&sb, "backend:    %s\n", p.Backend.Name())
	fmt.Fprintf(&sb, "platforms:  %s\n", strings.Join(p.Config.Build.Platforms, ", "))
	fmt.Fprintf(&sb, "pythons:    %s\n", strings.Join(p.Config.Build.PythonVersions, ", "))

	if err := os.WriteFile(set.BuildInfoPath(), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write build record: %w", err)
	}
	return nil
}

// writeSummary writes the human-readable build summary.
func (p *Producer) writeSummary(set *Set, m *Manifest, result *BuildResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# UHA Official %s\n\n", m.Version)
	fmt.Fprintf(&sb, "Build date: %s\n\n", m.BuildDate)
	fmt.Fprintf(&sb, "Patent: %s\n\n", m.Patent)
	if result.Placeholder {
		sb.WriteString("**Placeholder build**: no build backend configured; artifact\n")
		sb.WriteString("files are stubs and must not be released to users.\n\n")
	} else {
		fmt.Fprintf(&sb, "Artifacts: %d wheels across %d platforms and %d Python versions.\n\n",
			result.ArtifactCount, len(m.Platforms), len(m.PythonVersions))
	}
	sb.WriteString("## Platforms\n\n")
	for _, plat := range m.Platforms {
		fmt.Fprintf(&sb, "- %s\n", plat)
	}
	sb.WriteString("\n## Python versions\n\n")
	for _, py := range m.PythonVersions {
		fmt.Fprintf(&sb, "- %s\n", py)
	}

	if err := os.WriteFile(set.SummaryPath(), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func (p *Producer) progressf(format string, args ...interface{}) {
	if p.Progress != nil {
		fmt.Fprintf(p.Progress, format+"\n", args...)
	}
}
