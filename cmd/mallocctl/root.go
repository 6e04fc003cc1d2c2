package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Jeff-Souza/malloc/internal/logger"
)

var (
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
)

// stdout receives all command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// numbers formats counts with thousands separators.
var numbers = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "mallocctl",
	Short: "Replay allocation traces and inspect heap images",
	Long: `mallocctl drives the explicit free-list allocator: it replays
malloc-lab style allocation traces, generates random traces, and inspects
persistent heap images written by file-backed heaps.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && !quiet {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug})
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log allocator activity to stderr")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	flags.BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mallocctl: %v\n", err)
		os.Exit(1)
	}
}

// printInfo writes unless --quiet is set.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose writes only with --verbose.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatBytes renders n with a binary unit suffix: 512 B, 4.0 KiB, 1.5 MiB.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	v, suffix := float64(n), "KMGTPE"
	i := -1
	for v >= unit && i < len(suffix)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.1f %ciB", v, suffix[i])
}

func formatNumber(n int64) string {
	return numbers.Sprintf("%d", n)
}
