package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abba-01/uha-release/internal/config"
	"github.com/abba-01/uha-release/internal/publish"
	"github.com/abba-01/uha-release/internal/registry"
)

// runPublish handles the `uha-release publish` subcommand
func runPublish(args []string) error {
	opts, positional, err := parseGlobal(args)
	if err != nil {
		return err
	}

	if opts.showHelp {
		printPublishHelp()
		return nil
	}

	version, err := versionArg(positional, "publish")
	if err != nil {
		return err
	}

	// Create context with timeout (5 minutes for push and deposition)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	fmt.Printf("Publishing UHA Official %s\n", version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	publisher := publish.NewPublisher(layout, cfg, os.Stdout)
	result, err := publisher.Publish(ctx, version)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Released %s\n", version)
	fmt.Printf("  Tag:    %s\n", result.Tag)
	fmt.Printf("  Commit: %s\n", result.Commit)
	switch result.Registry.Outcome {
	case registry.OutcomeReserved:
		fmt.Printf("  DOI:    %s (draft deposition %d)\n", result.Registry.DOI, result.Registry.DepositionID)
		fmt.Println()
		fmt.Println("Finalize the deposition in the Zenodo dashboard to make the DOI resolvable.")
	default:
		fmt.Printf("  DOI:    %s\n", result.Registry.Outcome)
	}

	return nil
}

// printPublishHelp prints help for the publish command
func printPublishHelp() {
	fmt.Println("Usage: uha-release publish [options] <version>")
	fmt.Println()
	fmt.Println("Publish release metadata for a built artifact set: copy the manifest")
	fmt.Println("and checksum record into the public store, commit and tag, push when")
	fmt.Println("a GitHub token is configured, reserve a DOI when a Zenodo token is")
	fmt.Println("configured, and append the release log.")
	fmt.Println()
	fmt.Println("Binary artifacts are never published to the store; only integrity")
	fmt.Println("metadata leaves the builds directory.")
	fmt.Println()
	fmt.Println("Run 'uha-release verify <version>' first; publish re-verifies only")
	fmt.Println("the checksum record.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("  --root <dir>     Toolkit root directory (default ~/.uha)")
	fmt.Println("  --config <file>  Configuration file (default <root>/config/uha.lua)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  uha-release publish 1.0.0")
	fmt.Println()
}
