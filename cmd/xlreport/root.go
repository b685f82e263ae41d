package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logFormat  string
	logLevel   string
	tempDir    string
)

var rootCmd = &cobra.Command{
	Use:   "xlreport",
	Short: "Produce xlsx reports from CSV files and SQL queries",
	Long: `Build spreadsheet reports described by a YAML definition.

Commands:
  build  Write the report to an .xlsx file.
  serve  Serve report downloads over HTTP.

Examples:
  xlreport build -c report.yaml -o report.xlsx
  xlreport serve -c report.yaml --addr :8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(logFormat, logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "report.yaml", "Report definition file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&tempDir, "temp-dir", "", "Directory for worksheet temp files (default: system temp)")
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}
