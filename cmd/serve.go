package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/api"
)

// newServeCmd runs the HTTP scraping service until interrupted.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scraping HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp()
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			defer application.Close()

			server := api.NewServer(
				application.Orchestrator,
				application.Resources,
				application.Strategies,
				application.Logger,
			)

			addr := viper.GetString("server.listen_addr")
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				application.Logger.Info("HTTP server listening", zap.String("addr", addr))
				errCh <- httpServer.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
			case sig := <-sigCh:
				application.Logger.Info("Shutting down", zap.String("signal", sig.String()))
				shutdownCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}
}
