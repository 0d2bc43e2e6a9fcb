package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("uha-release %s\n", Version)
			fmt.Println("UHA Official release toolkit")
			return
		case "build":
			// Handle uha-release build subcommand
			if err := runBuild(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "verify":
			// Handle uha-release verify subcommand
			code, err := runVerify(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(code)
		case "publish":
			// Handle uha-release publish subcommand
			if err := runPublish(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║  uha-release - UHA Official release toolkit              ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("Builds artifact sets, verifies their integrity metadata, and")
	fmt.Println("publishes release metadata to the public store and DOI registry.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  uha-release --version                    Show version information")
	fmt.Println("  uha-release build [options] <version>    Produce an artifact set")
	fmt.Println("  uha-release verify [options] <version>   Run the check battery")
	fmt.Println("  uha-release publish [options] <version>  Publish release metadata")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --root <dir>    Toolkit root directory (default ~/.uha)")
	fmt.Println("  --config <file> Configuration file (default <root>/config/uha.lua)")
	fmt.Println()
	fmt.Println("Typical flow:")
	fmt.Println("  uha-release build 1.0.0")
	fmt.Println("  uha-release verify 1.0.0")
	fmt.Println("  uha-release publish 1.0.0")
}
