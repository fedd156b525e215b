package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

const banner = `
████████╗██████╗  █████╗  ██████╗██╗  ██╗███████╗██╗██████╗ ███████╗
╚══██╔══╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝██╔════╝██║██╔══██╗██╔════╝
   ██║   ██████╔╝███████║██║     █████╔╝ ███████╗██║██║  ██║█████╗
   ██║   ██╔══██╗██╔══██║██║     ██╔═██╗ ╚════██║██║██║  ██║██╔══╝
   ██║   ██║  ██║██║  ██║╚██████╗██║  ██╗███████║██║██████╔╝███████╗
   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚═╝╚═════╝ ╚══════╝

Career Decision Engine`

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "trackside",
	Short: "Career decision engine",
	Long: `trackside plans a 72-day career one turn at a time: train, race, rest or
answer an event. The serve command drives a connected screen adapter; the
other commands inspect the race calendar, event maps and scoring offline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel, logFormat)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trackside", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text", "":
		h = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return fmt.Errorf("invalid --log-format %q", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
