package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adnsv/xlstream/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve report downloads over HTTP",
	Long: `Serve the report over HTTP. Each request builds a fresh workbook.

Routes:
  GET /health              liveness and sheet count
  GET /report              the whole report
  GET /report/{name}.xlsx  a single sheet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, closeDB, err := newBuilder(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		s := &server.Server{Builder: b, Logger: slog.Default()}
		return s.ListenAndServe(ctx, listenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
