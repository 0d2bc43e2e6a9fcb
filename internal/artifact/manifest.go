package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"
)

// CanonicalPatent is the fixed legal identifier that every released
// manifest must carry, exactly.
const CanonicalPatent = "US 63/902,536"

// RequiredKeys are the manifest keys without which a set is not valid.
var RequiredKeys = []string{"version", "build_date", "patent", "platforms", "python_versions"}

// ErrManifestMissing indicates the manifest record is absent.
var ErrManifestMissing = errors.New("manifest record not found")

// Manifest is the structured metadata record describing an artifact set.
type Manifest struct {
	Version        string                 `json:"version"`
	BuildDate      string                 `json:"build_date"`
	Patent         string                 `json:"patent"`
	Platforms      []string               `json:"platforms"`
	PythonVersions []string               `json:"python_versions"`
	Config         map[string]interface{} `json:"config,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// manifestSchema rejects manifests with missing or mistyped fields at
// parse time, so later code never duck-types its way into a bad document.
const manifestSchema = `{
  "type": "object",
  "required": ["version", "build_date", "patent", "platforms", "python_versions"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "build_date": {"type": "string", "minLength": 1},
    "patent": {"type": "string", "minLength": 1},
    "platforms": {"type": "array", "items": {"type": "string"}},
    "python_versions": {"type": "array", "items": {"type": "string"}},
    "config": {"type": "object"},
    "notes": {"type": "string"}
  }
}`

var (
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
	compileSchemaOnce sync.Once
)

func schema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, compiledSchemaErr = compiler.Compile([]byte(manifestSchema))
	})
	return compiledSchema, compiledSchemaErr
}

// ParseManifest parses and schema-validates manifest bytes. Missing or
// mistyped fields fail here, not at a later field access.
func ParseManifest(data []byte) (*Manifest, error) {
	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	result := s.ValidateJSON(data)
	if !result.IsValid() {
		return nil, fmt.Errorf("manifest schema validation failed: %v", result.Errors)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// ReadManifest reads and parses the manifest record of a set.
// A missing file is reported as ErrManifestMissing.
func ReadManifest(s *Set) (*Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, s.ManifestPath())
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// WriteManifest writes the manifest record of a set.
func WriteManifest(s *Set, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.ManifestPath(), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// RawManifest parses manifest bytes as a plain JSON object without schema
// enforcement. The verifier uses this so that "well-formed JSON" and
// "required keys present" stay separate findings.
func RawManifest(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return raw, nil
}

// MissingKeys reports which required keys are absent from a raw manifest,
// in RequiredKeys order.
func MissingKeys(raw map[string]interface{}) []string {
	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Digest returns the sha256 hex digest of the RFC 8785 canonical form of
// manifest bytes. Recorded in the release log so a published manifest can
// be matched to its log row regardless of whitespace.
func Digest(manifestBytes []byte) (string, error) {
	canonical, err := jcs.Transform(manifestBytes)
	if err != nil {
		return "", fmt.Errorf("canonicalize manifest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
