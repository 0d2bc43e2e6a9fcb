package config

import (
	"errors"
	"path/filepath"
)

// Common configuration errors.
var (
	ErrConfigMissing = errors.New("toolkit configuration file not found")
	ErrNoPlatforms   = errors.New("build.platforms must list at least one platform")
	ErrNoPythons     = errors.New("build.python_versions must list at least one version")
	ErrNoPatent      = errors.New("project.patent is required")
)

// Config represents the complete toolkit configuration.
// This matches the Lua schema in config/uha.lua.
type Config struct {
	// Project metadata (name, legal identifier)
	Project Project `json:"project"`

	// Build settings (target platforms, python versions, backend)
	Build BuildConfig `json:"build"`

	// Public metadata store settings
	Publish PublishConfig `json:"publish"`

	// DOI registry settings
	Registry RegistryConfig `json:"registry"`

	// Domain parameters copied verbatim into the manifest config block
	Parameters map[string]interface{} `json:"parameters,omitempty"`

	// API credentials loaded from the secrets directory
	Tokens Tokens `json:"-"`
}

// Project contains project-level metadata.
type Project struct {
	Name   string `json:"name,omitempty"`
	Patent string `json:"patent"`
}

// BuildConfig contains artifact production settings.
type BuildConfig struct {
	// Target platform tags (e.g. manylinux_2_28_x86_64)
	Platforms []string `json:"platforms"`

	// Supported CPython versions (e.g. "3.12")
	PythonVersions []string `json:"python_versions"`

	// Directory containing the external build backend (compile.sh).
	// Empty selects the placeholder backend.
	BackendDir string `json:"backend_dir,omitempty"`
}

// PublishConfig contains public metadata store settings.
type PublishConfig struct {
	// Store directory; relative paths resolve against the toolkit root
	StoreDir string `json:"store_dir,omitempty"`

	// Git remote URL for push; empty disables pushing
	Remote string `json:"remote,omitempty"`

	// Branch name for the store repository
	Branch string `json:"branch,omitempty"`
}

// RegistryConfig contains DOI registry settings.
type RegistryConfig struct {
	// API base URL (default https://zenodo.org/api)
	BaseURL string `json:"base_url,omitempty"`
}

// Tokens holds API credentials. Empty values mean "not configured";
// features that need them degrade rather than fail.
type Tokens struct {
	GitHub string
	Zenodo string
}

// Validate checks that the configuration is usable for producing builds.
func (c *Config) Validate() error {
	if c.Project.Patent == "" {
		return ErrNoPatent
	}
	if len(c.Build.Platforms) == 0 {
		return ErrNoPlatforms
	}
	if len(c.Build.PythonVersions) == 0 {
		return ErrNoPythons
	}
	return nil
}

// Layout maps the toolkit root directory to its conventional subpaths.
type Layout struct {
	Root string
}

// NewLayout creates a layout rooted at the given directory.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// ConfigFile returns the path to the Lua configuration file.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.Root, "config", "uha.lua")
}

// BuildsDir returns the directory holding per-version artifact sets.
func (l Layout) BuildsDir() string {
	return filepath.Join(l.Root, "builds")
}

// SecretsDir returns the directory holding credential files.
func (l Layout) SecretsDir() string {
	return filepath.Join(l.Root, "secrets")
}

// ReleaseLog returns the path to the append-only CSV release log.
func (l Layout) ReleaseLog() string {
	return filepath.Join(l.Root, "releases.csv")
}

// StoreDir resolves the public store directory from the configuration,
// defaulting to <root>/public.
func (l Layout) StoreDir(cfg *Config) string {
	dir := cfg.Publish.StoreDir
	if dir == "" {
		dir = "public"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(l.Root, dir)
	}
	return dir
}

// applyDefaults fills in defaulted fields after parsing.
func (c *Config) applyDefaults() {
	if c.Publish.Branch == "" {
		c.Publish.Branch = "main"
	}
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = "https://zenodo.org/api"
	}
}
