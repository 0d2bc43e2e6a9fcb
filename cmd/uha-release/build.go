package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abba-01/uha-release/internal/artifact"
	"github.com/abba-01/uha-release/internal/config"
)

// runBuild handles the `uha-release build` subcommand
func runBuild(args []string) error {
	opts, positional, err := parseGlobal(args)
	if err != nil {
		return err
	}

	if opts.showHelp {
		printBuildHelp()
		return nil
	}

	version, err := versionArg(positional, "build")
	if err != nil {
		return err
	}

	// Create context with timeout (10 minutes for external backends)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	root, err := getRootDir(opts)
	if err != nil {
		return fmt.Errorf("get toolkit root: %w", err)
	}
	layout := config.NewLayout(root)

	cfg, err := config.Load(layout, opts.config)
	if err != nil {
		return err
	}

	producer, err := artifact.NewProducer(layout, cfg, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("Building UHA Official %s\n", version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	result, err := producer.Build(ctx, version)
	if err != nil {
		return err
	}

	fmt.Println()
	if result.Placeholder {
		placeholders, perr := result.Set.Placeholders()
		if perr != nil {
			return perr
		}
		fmt.Printf("Produced %d placeholder artifact(s) in %s\n", len(placeholders), result.Set.Dir)
	} else {
		fmt.Printf("Produced %d artifact(s) in %s\n", result.ArtifactCount, result.Set.Dir)
	}
	if result.Signed {
		fmt.Println("Checksum record signed.")
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  uha-release verify %s\n", version)
	fmt.Printf("  uha-release publish %s\n", version)

	return nil
}

// printBuildHelp prints help for the build command
func printBuildHelp() {
	fmt.Println("Usage: uha-release build [options] <version>")
	fmt.Println()
	fmt.Println("Produce the artifact set for a release: one wheel per configured")
	fmt.Println("platform and Python version, plus the manifest, checksum record,")
	fmt.Println("build record, and summary.")
	fmt.Println()
	fmt.Println("Without a configured build backend, placeholder artifacts are")
	fmt.Println("produced so the rest of the release flow can be exercised.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("  --root <dir>     Toolkit root directory (default ~/.uha)")
	fmt.Println("  --config <file>  Configuration file (default <root>/config/uha.lua)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  uha-release build 1.0.0")
	fmt.Println("  uha-release build --root /srv/uha 1.0.0")
	fmt.Println()
}
