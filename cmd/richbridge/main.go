// Package main is the entry point for the richbridge command.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/richbridge/internal/app"
	"github.com/dshills/richbridge/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	// Cancel a watching session on SIGINT/SIGTERM; the final export still runs
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.HTMLPath, "html", "", "Initial editor HTML file")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua scenario to run after the page loads")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua scenario (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-inject stylesheets on change until interrupted")
	flag.BoolVar(&opts.Watch, "w", false, "Watch stylesheets (shorthand)")
	flag.BoolVar(&opts.Diff, "diff", false, "Print a diff of the input against the exported HTML")
	flag.BoolVar(&opts.Statuses, "statuses", false, "Print every status snapshot")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "richbridge - rich text editing session runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: richbridge [options] [file.html]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  richbridge page.html                      Load and export a page\n")
		fmt.Fprintf(os.Stderr, "  richbridge -s bold.lua -diff page.html    Show what a scenario changed\n")
		fmt.Fprintf(os.Stderr, "  richbridge -c richbridge.toml -w          Live-reload configured stylesheets\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("richbridge %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		if _, err := logging.LookupLevel(opts.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// A positional argument is the HTML file when -html is not given
	if opts.HTMLPath == "" && flag.NArg() > 0 {
		opts.HTMLPath = flag.Arg(0)
	}

	return opts
}
