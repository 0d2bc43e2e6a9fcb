package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/abba-01/uha-release/internal/config"
)

// ErrBackendNotFound indicates a configured build backend directory that
// does not exist. Fatal: there is no way to produce real artifacts
// without the backend the operator asked for.
var ErrBackendNotFound = errors.New("build backend directory not found")

// compileScript is the entry point expected inside the backend directory.
const compileScript = "compile.sh"

// BuildSpec identifies one artifact in the platform × python cross-product.
type BuildSpec struct {
	Version       string
	Platform      string
	PythonVersion string
}

// ArtifactName returns the wheel file name for a build spec, without any
// placeholder suffix. Python "3.12" becomes the cp312 ABI tag.
func ArtifactName(spec BuildSpec) string {
	abi := "cp" + strings.ReplaceAll(spec.PythonVersion, ".", "")
	return fmt.Sprintf("uha_official-%s-%s-%s%s", spec.Version, abi, spec.Platform, WheelSuffix)
}

// Backend produces artifact bytes for one build spec.
type Backend interface {
	// Name identifies the backend in progress output and build records.
	Name() string

	// Suffix is appended to the wheel name for files this backend
	// produces; the placeholder backend uses it to keep its output
	// distinguishable from a real artifact.
	Suffix() string

	// Build produces the artifact bytes for one spec.
	Build(ctx context.Context, spec BuildSpec) ([]byte, error)
}

// ExecBackend delegates to an external compile script.
type ExecBackend struct {
	dir string
}

// NewExecBackend creates a backend over an external build directory.
// The directory must exist.
func NewExecBackend(dir string) (*ExecBackend, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, dir)
		}
		return nil, fmt.Errorf("stat backend directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrBackendNotFound, dir)
	}
	return &ExecBackend{dir: dir}, nil
}

// Name implements Backend.
func (b *ExecBackend) Name() string { return "external (" + b.dir + ")" }

// Suffix implements Backend.
func (b *ExecBackend) Suffix() string { return "" }

// Build runs compile.sh with version, platform, and python version and
// returns its stdout as the artifact bytes. Stderr is folded into the
// error so the operator sees the compiler's complaint.
func (b *ExecBackend) Build(ctx context.Context, spec BuildSpec) ([]byte, error) {
	script := filepath.Join(b.dir, compileScript)
	cmd := exec.CommandContext(ctx, script, spec.Version, spec.Platform, spec.PythonVersion)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("compile %s/%s: %w: %s", spec.Platform, spec.PythonVersion, err, msg)
		}
		return nil, fmt.Errorf("compile %s/%s: %w", spec.Platform, spec.PythonVersion, err)
	}
	return stdout.Bytes(), nil
}

// PlaceholderBackend writes deterministic stub artifacts so the pipeline
// stays exercisable before the real backend exists.
type PlaceholderBackend struct{}

// Name implements Backend.
func (b *PlaceholderBackend) Name() string { return "placeholder" }

// Suffix implements Backend.
func (b *PlaceholderBackend) Suffix() string { return ".placeholder" }

// Build implements Backend with deterministic stub content.
func (b *PlaceholderBackend) Build(_ context.Context, spec BuildSpec) ([]byte, error) {
	content := fmt.Sprintf(
		"UHA Official placeholder artifact\nversion: %s\nplatform: %s\npython: %s\n",
		spec.Version, spec.Platform, spec.PythonVersion,
	)
	return []byte(content), nil
}

// NewBackend selects the backend from configuration: an external backend
// when build.backend_dir is set, the placeholder otherwise. The build
// loop never branches on backend kind itself.
func NewBackend(cfg *config.Config) (Backend, error) {
	if cfg.Build.BackendDir == "" {
		return &PlaceholderBackend{}, nil
	}
	return NewExecBackend(cfg.Build.BackendDir)
}
