package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tx-grouper/internal/api"
	"github.com/tx-grouper/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grouping over HTTP",
	Long: `Start an HTTP server that groups batches posted to /api/group and
exposes Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, err := newService(ctx, service.WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	defer svc.Close()

	server := api.NewServer(svc, cfg.Server, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
	return <-errChan
}
