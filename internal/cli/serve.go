package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/verifychain/credentials-sdk-go/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the credential console over HTTP",
		Long: `Starts the HTTP API of the credential console.

The API exposes the wallet session, issuing, lookup, range listing and QR
codes under /api/v1, plus /health and Prometheus metrics on /metrics.`,
		Example: `  # Serve on the configured address (default :8080)
  credconsole serve

  # Serve on a custom address
  credconsole serve --listen 127.0.0.1:3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.buildRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			resolver, err := opts.newResolver(rt.config)
			if err != nil {
				return err
			}
			router, err := httpapi.NewRouter(httpapi.Config{
				Console:  rt.console,
				Resolver: resolver,
				Chains:   rt.config.ChainRegistry(),
				Gatherer: rt.registry,
				Logger:   &opts.logger,
			})
			if err != nil {
				return err
			}

			if listen == "" {
				listen = rt.config.Listen
			}
			server := &http.Server{
				Addr:              listen,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Wallet events are applied for as long as the server runs.
			go func() {
				if err := rt.console.Run(ctx); err != nil {
					opts.logger.Debug().Err(err).Msg("wallet event loop stopped")
				}
			}()

			serverErr := make(chan error, 1)
			go func() {
				opts.logger.Info().Str("addr", listen).Msg("credential console listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				opts.logger.Info().Msg("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					opts.logger.Error().Err(err).Msg("server shutdown failed")
					return err
				}
				opts.logger.Info().Msg("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on; defaults to the configured listen address")
	return cmd
}
