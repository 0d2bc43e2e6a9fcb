package verify

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/abba-01/uha-release/internal/artifact"
)

// newTestSet creates a complete, verifiable artifact set: a manifest with
// full coverage, two real artifacts, a matching checksum record, and the
// optional metadata files.
func newTestSet(t *testing.T, version string) *artifact.Set {
	t.Helper()

	buildsDir := t.TempDir()
	dir := filepath.Join(buildsDir, "2025-10-24_"+version)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir set: %v", err)
	}
	set := &artifact.Set{Version: version, Dir: dir}

	manifest := &artifact.Manifest{
		Version:        version,
		BuildDate:      "2025-10-24",
		Patent:         artifact.CanonicalPatent,
		Platforms:      []string{"manylinux_2_28_x86_64", "manylinux_2_28_aarch64", "macosx_11_0_arm64", "macosx_10_9_x86_64", "win_amd64"},
		PythonVersions: []string{"3.10", "3.11", "3.12", "3.13"},
	}
	if err := artifact.WriteManifest(set, manifest); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	artifacts := []string{
		"uha_official-" + version + "-cp312-win_amd64.whl",
		"uha_official-" + version + "-cp312-macosx_11_0_arm64.whl",
	}
	for _, name := range artifacts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("wheel "+name), 0644); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}
	record, err := artifact.ComputeChecksums(dir, artifacts)
	if err != nil {
		t.Fatalf("compute checksums: %v", err)
	}
	if err := artifact.WriteChecksums(set.ChecksumsPath(), record); err != nil {
		t.Fatalf("write checksums: %v", err)
	}

	if err := os.WriteFile(set.BuildInfoPath(), []byte("UHA Official build record\n"), 0644); err != nil {
		t.Fatalf("write build record: %v", err)
	}
	if err := os.WriteFile(set.SummaryPath(), []byte("# UHA Official "+version+"\n"), 0644); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	return set
}

func run(t *testing.T, set *artifact.Set) *Report {
	t.Helper()
	return RunBattery(NewContext(set, filepath.Join(t.TempDir(), "secrets")), Battery())
}

// resultsFor collects the findings of one named check.
func resultsFor(report *Report, check string) []CheckResult {
	var out []CheckResult
	for _, r := range report.Results {
		if r.Check == check {
			out = append(out, r)
		}
	}
	return out
}

func TestBattery_CleanSet(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	report := run(t, set)

	if !report.OK() {
		t.Fatalf("clean set not release-ready: %+v", report.Results)
	}
	if report.Failed != 0 {
		t.Errorf("failed: got %d, want 0", report.Failed)
	}
	// Only the unsigned-checksums finding warns on a clean unsigned set.
	if report.Warned != 1 {
		t.Errorf("warned: got %d, want 1 (unsigned)", report.Warned)
	}

	sig := resultsFor(report, "signature")
	if len(sig) != 1 || sig[0].Status != Warn {
		t.Errorf("signature check: got %+v, want single Warn", sig)
	}
}

func TestBattery_PlaceholderModeScenario(t *testing.T) {
	// Spec scenario: valid manifest, checksum record covering zero
	// artifacts, no wheels. Warnings only; still release-ready.
	set := newTestSet(t, "1.0.0")
	for _, name := range []string{
		"uha_official-1.0.0-cp312-win_amd64.whl",
		"uha_official-1.0.0-cp312-macosx_11_0_arm64.whl",
	} {
		if err := os.Remove(filepath.Join(set.Dir, name)); err != nil {
			t.Fatalf("remove artifact: %v", err)
		}
	}
	if err := artifact.WriteChecksums(set.ChecksumsPath(), &artifact.ChecksumRecord{}); err != nil {
		t.Fatalf("write empty checksums: %v", err)
	}

	report := run(t, set)

	if got := resultsFor(report, "manifest"); got[0].Status != Pass {
		t.Errorf("manifest check: got %v", got[0])
	}
	if got := resultsFor(report, "version"); got[0].Status != Pass {
		t.Errorf("version check: got %v", got[0])
	}
	if got := resultsFor(report, "checksums"); got[0].Status != Warn {
		t.Errorf("checksums on empty record: got %v, want Warn", got[0])
	}
	if got := resultsFor(report, "artifacts"); got[0].Status != Warn {
		t.Errorf("artifact count: got %v, want Warn", got[0])
	}
	if got := resultsFor(report, "platform-coverage"); got[0].Status != Pass {
		t.Errorf("platform coverage (5 >= 4): got %v", got[0])
	}
	if got := resultsFor(report, "python-coverage"); got[0].Status != Pass {
		t.Errorf("python coverage (4 >= 3): got %v", got[0])
	}

	if !report.OK() {
		t.Errorf("placeholder mode must remain release-ready: %+v", report.Results)
	}
}

func TestBattery_PatentMismatch(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	manifest, err := artifact.ReadManifest(set)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	manifest.Patent = "US 00/000,000"
	if err := artifact.WriteManifest(set, manifest); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	report := run(t, set)

	patent := resultsFor(report, "patent")
	if len(patent) != 1 || patent[0].Status != Fail {
		t.Errorf("patent check: got %+v, want single Fail", patent)
	}
	if report.OK() {
		t.Error("patent mismatch must block release")
	}
}

func TestBattery_MissingManifest(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	if err := os.Remove(set.ManifestPath()); err != nil {
		t.Fatalf("remove manifest: %v", err)
	}

	report := run(t, set)

	// Every manifest-dependent check fails independently; none is skipped.
	for _, check := range []string{"manifest", "version", "schema", "patent"} {
		results := resultsFor(report, check)
		if len(results) == 0 || results[0].Status != Fail {
			t.Errorf("%s check: got %+v, want Fail", check, results)
		}
	}
	// Coverage checks degrade to warnings, not failures.
	for _, check := range []string{"platform-coverage", "python-coverage"} {
		results := resultsFor(report, check)
		if len(results) == 0 || results[0].Status != Warn {
			t.Errorf("%s check: got %+v, want Warn", check, results)
		}
	}
}

func TestBattery_MissingRequiredKeys(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	raw := `{"version":"1.0.0","platforms":["a","b","c","d"],"python_versions":["3.10","3.11","3.12"]}`
	if err := os.WriteFile(set.ManifestPath(), []byte(raw), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	report := run(t, set)

	schema := resultsFor(report, "schema")
	var missing []string
	for _, result := range schema {
		if result.Status != Fail {
			t.Errorf("schema result not Fail: %+v", result)
		}
		missing = append(missing, result.Message)
	}
	want := []string{
		"required manifest key missing: build_date",
		"required manifest key missing: patent",
	}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("schema findings: got %v, want %v", missing, want)
	}
}

func TestBattery_ChecksumMutation(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	target := filepath.Join(set.Dir, "uha_official-1.0.0-cp312-win_amd64.whl")
	if err := os.WriteFile(target, []byte("tampered"), 0644); err != nil {
		t.Fatalf("mutate artifact: %v", err)
	}

	report := run(t, set)

	checksums := resultsFor(report, "checksums")
	// One finding per mismatch plus the aggregate.
	if len(checksums) != 2 {
		t.Fatalf("checksum findings: got %d, want 2", len(checksums))
	}
	for _, result := range checksums {
		if result.Status != Fail {
			t.Errorf("checksum finding not Fail: %+v", result)
		}
	}
	if report.OK() {
		t.Error("checksum mismatch must block release")
	}
}

func TestBattery_Idempotent(t *testing.T) {
	set := newTestSet(t, "1.0.0")

	first := run(t, set)
	second := run(t, set)

	if first.Passed != second.Passed || first.Failed != second.Failed || first.Warned != second.Warned {
		t.Errorf("counters differ across runs: %d/%d/%d vs %d/%d/%d",
			first.Passed, first.Failed, first.Warned,
			second.Passed, second.Failed, second.Warned)
	}
}

func TestBattery_PermissionDoubleCount(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	for _, name := range []string{
		"uha_official-1.0.0-cp312-win_amd64.whl",
		"uha_official-1.0.0-cp312-macosx_11_0_arm64.whl",
	} {
		if err := os.Chmod(filepath.Join(set.Dir, name), 0755); err != nil {
			t.Fatalf("chmod: %v", err)
		}
	}

	report := run(t, set)

	perms := resultsFor(report, "permissions")
	// Two per-file warnings plus the aggregate: the warning counter
	// intentionally double-counts insecure files.
	if len(perms) != 3 {
		t.Fatalf("permission findings: got %d, want 3", len(perms))
	}
	for _, result := range perms {
		if result.Status != Warn {
			t.Errorf("permission finding not Warn: %+v", result)
		}
	}
	if report.OK() != true {
		t.Error("permission warnings must not block release")
	}
}

func TestBattery_OrderIsStable(t *testing.T) {
	set := newTestSet(t, "1.0.0")
	report := run(t, set)

	want := []string{
		"manifest", "version", "checksums", "build-record", "summary",
		"artifacts", "schema", "patent", "platform-coverage",
		"python-coverage", "permissions", "signature",
	}
	var got []string
	seen := map[string]bool{}
	for _, result := range report.Results {
		if !seen[result.Check] {
			seen[result.Check] = true
			got = append(got, result.Check)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("check order: got %v, want %v", got, want)
	}
}
