package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sharing/internal/application/api"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lore-sharing HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(func(d *Deps) error {
				ctx := cmd.Context()

				if err := d.DB.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("ensuring schema: %w", err)
				}

				server := api.NewServer(d.Log, d.DB)
				httpServer := &http.Server{
					Addr:              d.Config.Server.Addr,
					Handler:           server.Router(),
					ReadHeaderTimeout: 10 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					d.Log.Info("listening", "addr", httpServer.Addr, "db", d.DB.Path())
					if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
						return
					}
					errCh <- nil
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				d.Log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutting down server: %w", err)
				}
				return <-errCh
			})
		},
	}
}
