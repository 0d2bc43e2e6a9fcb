package main

import (
	"fmt"

	"github.com/abba-01/uha-release/internal/artifact"
	"github.com/abba-01/uha-release/internal/config"
	"github.com/abba-01/uha-release/internal/verify"
)

// runVerify handles the `uha-release verify` subcommand.
// Returns an exit code (0 = all checks passed, 1 = failures) and an error.
func runVerify(args []string) (int, error) {
	opts, positional, err := parseGlobal(args)
	if err != nil {
		return 1, err
	}

	if opts.showHelp {
		printVerifyHelp()
		return 0, nil
	}

	version, err := versionArg(positional, "verify")
	if err != nil {
		return 1, err
	}

	root, err := getRootDir(opts)
	if err != nil {
		return 1, fmt.Errorf("get toolkit root: %w", err)
	}
	layout := config.NewLayout(root)

	// Verification reads only the artifact set; no configuration needed.
	set, err := artifact.Locate(layout.BuildsDir(), version)
	if err != nil {
		return 1, err
	}

	report := verify.RunBattery(verify.NewContext(set, layout.SecretsDir()), verify.Battery())
	fmt.Print(verify.FormatReport(version, report))

	// Non-zero exit code iff any check failed (warnings pass)
	if !report.OK() {
		return 1, nil
	}
	return 0, nil
}

// printVerifyHelp prints help for the verify command
func printVerifyHelp() {
	fmt.Println("Usage: uha-release verify [options] <version>")
	fmt.Println()
	fmt.Println("Run the full check battery against the artifact set for a version.")
	fmt.Println("Every check always runs; one broken file surfaces every finding it")
	fmt.Println("causes rather than masking later checks.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help    Show this help message")
	fmt.Println("  --root <dir>  Toolkit root directory (default ~/.uha)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  uha-release verify 1.0.0")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  All checks passed (warnings allowed)")
	fmt.Println("  1  One or more checks failed")
	fmt.Println()
}
