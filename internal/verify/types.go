// Package verify runs the release-readiness check battery against an
// artifact set. Every check is a pure function over the set; the runner
// folds them in declaration order into a report, never stopping early, so
// one run surfaces every defect at once.
package verify

import (
	"sync"

	"github.com/abba-01/uha-release/internal/artifact"
)

// Status classifies one check finding.
type Status int

const (
	Pass Status = iota
	Fail
	Warn
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Warn:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// Symbol returns the status marker used in report output.
func (s Status) Symbol() string {
	switch s {
	case Pass:
		return "✓"
	case Fail:
		return "✗"
	case Warn:
		return "⚠"
	default:
		return "?"
	}
}

// CheckResult is one finding produced by a check. Most checks produce
// exactly one; the schema and permission audits produce one per defect
// plus an aggregate.
type CheckResult struct {
	Check   string // name of the producing check, set by the runner
	Status  Status
	Message string
}

// Check is one member of the battery. Checks are independent: a check
// must not assume any earlier check passed.
type Check struct {
	Name string
	Run  func(*Context) []CheckResult
}

// Context carries the located set and lazily-loaded manifest state shared
// by the checks within one run.
type Context struct {
	Set *artifact.Set

	// SecretsDir holds the signature public key, if any.
	SecretsDir string

	manifestOnce sync.Once
	manifestRaw  map[string]interface{}
	manifestErr  error
}

// NewContext creates a verification context for a located set.
func NewContext(set *artifact.Set, secretsDir string) *Context {
	return &Context{Set: set, SecretsDir: secretsDir}
}

// Report is the outcome of one battery run.
type Report struct {
	Results []CheckResult
	Passed  int
	Failed  int
	Warned  int
}

// OK reports release readiness: no failed checks. Warnings never block.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// add records a result and bumps the matching counter.
func (r *Report) add(result CheckResult) {
	r.Results = append(r.Results, result)
	switch result.Status {
	case Pass:
		r.Passed++
	case Fail:
		r.Failed++
	case Warn:
		r.Warned++
	}
}

// RunBattery executes every check in order and aggregates the findings.
func RunBattery(ctx *Context, checks []Check) *Report {
	report := &Report{}
	for _, check := range checks {
		for _, result := range check.Run(ctx) {
			result.Check = check.Name
			report.add(result)
		}
	}
	return report
}
