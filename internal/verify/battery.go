package verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abba-01/uha-release/internal/artifact"
	"github.com/abba-01/uha-release/internal/signing"
)

// Coverage thresholds: releases targeting fewer platforms or Python
// versions than this are flagged, not blocked.
const (
	MinPlatforms      = 4
	MinPythonVersions = 3
)

// Battery returns the release-readiness checks in their fixed order.
func Battery() []Check {
	return []Check{
		{Name: "manifest", Run: checkManifestPresent},
		{Name: "version", Run: checkManifestVersion},
		{Name: "checksums", Run: checkChecksums},
		{Name: "build-record", Run: checkBuildInfoPresent},
		{Name: "summary", Run: checkSummaryPresent},
		{Name: "artifacts", Run: checkArtifactCount},
		{Name: "schema", Run: checkManifestSchema},
		{Name: "patent", Run: checkPatent},
		{Name: "platform-coverage", Run: checkPlatformCoverage},
		{Name: "python-coverage", Run: checkPythonCoverage},
		{Name: "permissions", Run: checkPermissions},
		{Name: "signature", Run: checkSignature},
	}
}

// rawManifest loads and caches the manifest as a plain JSON object.
// Checks that need it must each handle the error themselves: the battery
// never skips a check because an earlier one failed.
func (c *Context) rawManifest() (map[string]interface{}, error) {
	c.manifestOnce.Do(func() {
		data, err := os.ReadFile(c.Set.ManifestPath())
		if err != nil {
			if os.IsNotExist(err) {
				c.manifestErr = artifact.ErrManifestMissing
			} else {
				c.manifestErr = err
			}
			return
		}
		c.manifestRaw, c.manifestErr = artifact.RawManifest(data)
	})
	return c.manifestRaw, c.manifestErr
}

func one(status Status, format string, args ...interface{}) []CheckResult {
	return []CheckResult{{Status: status, Message: fmt.Sprintf(format, args...)}}
}

func checkManifestPresent(ctx *Context) []CheckResult {
	_, err := ctx.rawManifest()
	switch {
	case errors.Is(err, artifact.ErrManifestMissing):
		return one(Fail, "manifest.json is missing")
	case err != nil:
		return one(Fail, "manifest.json is malformed: %v", err)
	default:
		return one(Pass, "manifest.json present and well-formed")
	}
}

func checkManifestVersion(ctx *Context) []CheckResult {
	raw, err := ctx.rawManifest()
	if err != nil {
		return one(Fail, "cannot read manifest version: manifest unavailable")
	}
	version, _ := raw["version"].(string)
	if version != ctx.Set.Version {
		return one(Fail, "manifest version %q does not match requested version %q", version, ctx.Set.Version)
	}
	return one(Pass, "manifest version matches %q", version)
}

func checkChecksums(ctx *Context) []CheckResult {
	record, err := artifact.ReadChecksums(ctx.Set.ChecksumsPath())
	if errors.Is(err, artifact.ErrChecksumsMissing) {
		return one(Fail, "checksum record is missing")
	}
	if err != nil {
		return one(Fail, "checksum record unreadable: %v", err)
	}

	if len(record.Entries) == 0 {
		return one(Warn, "checksum record covers no files; nothing to verify")
	}

	mismatches := record.Verify(ctx.Set.Dir)
	if len(mismatches) == 0 {
		return one(Pass, "all %d checksums match", len(record.Entries))
	}

	var results []CheckResult
	for _, m := range mismatches {
		results = append(results, CheckResult{Status: Fail, Message: "checksum mismatch: " + m.String()})
	}
	results = append(results, CheckResult{
		Status:  Fail,
		Message: fmt.Sprintf("%d of %d checksums failed verification", len(mismatches), len(record.Entries)),
	})
	return results
}

func checkBuildInfoPresent(ctx *Context) []CheckResult {
	if _, err := os.Stat(ctx.Set.BuildInfoPath()); err != nil {
		return one(Warn, "build metadata record (%s) is missing", artifact.BuildInfoFile)
	}
	return one(Pass, "build metadata record present")
}

func checkSummaryPresent(ctx *Context) []CheckResult {
	if _, err := os.Stat(ctx.Set.SummaryPath()); err != nil {
		return one(Warn, "build summary (%s) is missing", artifact.SummaryFile)
	}
	return one(Pass, "build summary present")
}

func checkArtifactCount(ctx *Context) []CheckResult {
	artifacts, err := ctx.Set.Artifacts()
	if err != nil {
		return one(Fail, "cannot list artifacts: %v", err)
	}
	if len(artifacts) == 0 {
		return one(Warn, "no binary artifacts found (placeholder mode)")
	}
	return one(Pass, "%d binary artifacts found", len(artifacts))
}

func checkManifestSchema(ctx *Context) []CheckResult {
	raw, err := ctx.rawManifest()
	if err != nil {
		return one(Fail, "cannot audit manifest keys: manifest unavailable")
	}

	missing := artifact.MissingKeys(raw)
	if len(missing) == 0 {
		return one(Pass, "all required manifest keys present")
	}

	var results []CheckResult
	for _, key := range missing {
		results = append(results, CheckResult{
			Status:  Fail,
			Message: fmt.Sprintf("required manifest key missing: %s", key),
		})
	}
	return results
}

func checkPatent(ctx *Context) []CheckResult {
	raw, err := ctx.rawManifest()
	if err != nil {
		return one(Fail, "cannot read patent identifier: manifest unavailable")
	}
	patent, _ := raw["patent"].(string)
	if patent != artifact.CanonicalPatent {
		return one(Fail, "patent identifier mismatch: got %q, want %q", patent, artifact.CanonicalPatent)
	}
	return one(Pass, "patent identifier matches %q", artifact.CanonicalPatent)
}

// manifestList reads a string-array manifest field leniently; coverage
// checks warn rather than fail, so a broken manifest just reads as empty.
func (c *Context) manifestList(key string) []interface{} {
	raw, err := c.rawManifest()
	if err != nil {
		return nil
	}
	list, _ := raw[key].([]interface{})
	return list
}

func checkPlatformCoverage(ctx *Context) []CheckResult {
	count := len(ctx.manifestList("platforms"))
	if count >= MinPlatforms {
		return one(Pass, "%d platforms targeted (minimum %d)", count, MinPlatforms)
	}
	return one(Warn, "only %d platforms targeted (minimum %d)", count, MinPlatforms)
}

func checkPythonCoverage(ctx *Context) []CheckResult {
	count := len(ctx.manifestList("python_versions"))
	if count >= MinPythonVersions {
		return one(Pass, "%d Python versions supported (minimum %d)", count, MinPythonVersions)
	}
	return one(Warn, "only %d Python versions supported (minimum %d)", count, MinPythonVersions)
}

// checkPermissions flags any file whose owner permission digit exceeds 6
// (execute or wider). Each insecure file gets its own warning and the
// aggregate adds one more, so the warning counter double-counts; that
// verbosity is long-standing expected behavior.
func checkPermissions(ctx *Context) []CheckResult {
	names, err := ctx.Set.Files()
	if err != nil {
		return one(Fail, "cannot audit file permissions: %v", err)
	}

	var results []CheckResult
	insecure := 0
	for _, name := range names {
		info, err := os.Stat(filepath.Join(ctx.Set.Dir, name))
		if err != nil {
			continue
		}
		ownerDigit := (info.Mode().Perm() >> 6) & 7
		if ownerDigit > 6 {
			insecure++
			results = append(results, CheckResult{
				Status:  Warn,
				Message: fmt.Sprintf("insecure permissions on %s: %04o", name, info.Mode().Perm()),
			})
		}
	}

	if insecure == 0 {
		results = append(results, CheckResult{Status: Pass, Message: "file permissions are restrictive"})
	} else {
		results = append(results, CheckResult{
			Status:  Warn,
			Message: fmt.Sprintf("%d files with insecure permissions", insecure),
		})
	}
	return results
}

func checkSignature(ctx *Context) []CheckResult {
	if _, err := os.Stat(ctx.Set.SignaturePath()); err != nil {
		return one(Warn, "checksum record is unsigned")
	}

	pubKey := filepath.Join(ctx.SecretsDir, signing.PublicKeyFile)
	if _, err := os.Stat(pubKey); err != nil {
		return one(Warn, "signature present but no public key available to verify it")
	}

	if err := signing.VerifyDetached(ctx.Set.ChecksumsPath(), ctx.Set.SignaturePath(), pubKey); err != nil {
		return one(Fail, "checksum signature verification failed: %v", err)
	}
	return one(Pass, "checksum signature verified")
}
