package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadTokens reads API credentials from the secrets directory.
// Each token lives in its own single-line file. A missing file yields an
// empty token, which downstream code treats as "not configured"; any other
// read error is reported so a permissions problem is not mistaken for an
// unconfigured credential.
func LoadTokens(secretsDir string) (Tokens, error) {
	github, err := readTokenFile(filepath.Join(secretsDir, githubTokenFile))
	if err != nil {
		return Tokens{}, err
	}
	zenodo, err := readTokenFile(filepath.Join(secretsDir, zenodoTokenFile))
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{GitHub: github, Zenodo: zenodo}, nil
}

// readTokenFile reads and trims a token file. Not existing is fine.
func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credential %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Load parses the toolkit config for the given layout and attaches
// credentials from the secrets directory. This is the single construction
// point for the process-wide configuration.
func Load(layout Layout, configPath string) (*Config, error) {
	if configPath == "" {
		configPath = layout.ConfigFile()
	}

	cfg, err := ParseFile(configPath)
	if err != nil {
		return nil, err
	}

	tokens, err := LoadTokens(layout.SecretsDir())
	if err != nil {
		return nil, err
	}
	cfg.Tokens = tokens

	return cfg, nil
}
