package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvRootDir overrides the toolkit root directory when set.
const EnvRootDir = "UHA_ROOT"

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	root     string
	config   string
	showHelp bool
}

// parseGlobal walks the argument list, filling shared options and
// returning positional arguments. Unknown flags are an error so typos
// do not silently become versions.
func parseGlobal(args []string) (globalOptions, []string, error) {
	var opts globalOptions
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--help", "-h":
			opts.showHelp = true
		case "--root", "-root":
			if i+1 >= len(args) {
				return opts, nil, fmt.Errorf("%s requires a directory argument", arg)
			}
			i++
			opts.root = args[i]
		case "--config", "-config":
			if i+1 >= len(args) {
				return opts, nil, fmt.Errorf("%s requires a file argument", arg)
			}
			i++
			opts.config = args[i]
		default:
			if len(arg) > 0 && arg[0] != '-' {
				positional = append(positional, arg)
			} else {
				return opts, nil, fmt.Errorf("unknown option: %s", arg)
			}
		}
	}

	return opts, positional, nil
}

// getRootDir resolves the toolkit root: flag, then UHA_ROOT, then ~/.uha.
func getRootDir(opts globalOptions) (string, error) {
	if opts.root != "" {
		return opts.root, nil
	}

	// Check environment variable
	if rootDir := os.Getenv(EnvRootDir); rootDir != "" {
		return rootDir, nil
	}

	// Default to ~/.uha
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".uha"), nil
}

// versionArg extracts the single required version argument.
func versionArg(positional []string, command string) (string, error) {
	if len(positional) == 0 {
		return "", fmt.Errorf("no version specified\nUsage: uha-release %s [options] <version>", command)
	}
	if len(positional) > 1 {
		return "", fmt.Errorf("too many arguments: %v\nUsage: uha-release %s [options] <version>", positional, command)
	}
	return positional[0], nil
}
