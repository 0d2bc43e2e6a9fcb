package verify

import (
	"fmt"
	"strings"
)

const reportRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// FormatReport renders a verification report for terminal display: one
// symbol-coded line per finding, a tri-counter summary, and an explicit
// release-readiness statement.
func FormatReport(version string, report *Report) string {
	var sb strings.Builder
	sb.Grow(512 + len(report.Results)*64)

	sb.WriteString("\n" + reportRule + "\n")
	fmt.Fprintf(&sb, "VERIFICATION REPORT: %s\n", version)
	sb.WriteString(reportRule + "\n\n")

	for _, result := range report.Results {
		fmt.Fprintf(&sb, "%s [%s] %s\n", result.Status.Symbol(), result.Check, result.Message)
	}

	sb.WriteString("\n" + reportRule + "\n")
	fmt.Fprintf(&sb, "SUMMARY: %d passed, %d failed, %d warnings\n",
		report.Passed, report.Failed, report.Warned)
	if report.OK() {
		sb.WriteString("Ready for release.\n")
	} else {
		sb.WriteString("Fix issues before release.\n")
	}
	sb.WriteString(reportRule + "\n")

	return sb.String()
}
