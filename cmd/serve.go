package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/internal/observability"
	"github.com/xkilldash9x/jobfill/internal/server"
)

// newServeCmd creates and configures the `serve` command, which exposes
// the agent over HTTP until interrupted.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the application agent over HTTP",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				if err := viper.BindPFlag("server.port", cmd.Flags().Lookup("port")); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("host") {
				if err := viper.BindPFlag("server.host", cmd.Flags().Lookup("host")); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			handler := server.NewHandler(components.Orchestrator, logger)
			srv := server.New(cfg.Server, handler, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("Shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Error during server shutdown", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on. (Overrides config/env)")
	serveCmd.Flags().String("host", "", "Host interface to bind. (Overrides config/env)")

	return serveCmd
}
