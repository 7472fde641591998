package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"apiscraper/pkg/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	maxResults   int
	outputDir    string
	outputFormat string
	harFile      string
	quiet        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apiscraper",
	Short: "Search Twitter, Indeed and Yelp through the APIs their web pages use",
	Long: `apiscraper searches public content on Twitter, Indeed and Yelp by talking to the
same endpoints their web front-ends call.

Each search bootstraps an anonymous browser-like session, pages through results
with randomized pauses between requests, and normalizes records to a fixed
shape. Results are written as JSON files or printed as JSON or a table.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./apiscraper.yaml or $HOME/.apiscraper.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.IntVarP(&maxResults, "max-results", "m", 50, "maximum number of results to collect")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "directory to save results to (prints to stdout when empty)")
	flags.StringVarP(&outputFormat, "format", "f", "json", "stdout format when not saving (json, table)")
	flags.StringVar(&harFile, "har", "", "browser capture (.har) whose cookies seed the session")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`apiscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
