package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spring2node/internal/api"
	"spring2node/internal/pipeline"
)

var (
	serveAddr    string
	serveWorkers int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion job API server",
	Long: `Serves conversion jobs over HTTP: submit a repository for conversion,
poll or stream job progress, and cancel running jobs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 4, "concurrent conversion workers per job")
}

func runServe(cmd *cobra.Command, args []string) error {
	factory := func(ctx context.Context, req pipeline.Request) (pipeline.Components, error) {
		return buildComponents(ctx, req, serveWorkers, logger)
	}
	srv := api.New(serveAddr, factory, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
