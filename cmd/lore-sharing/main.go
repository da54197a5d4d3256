// Package main provides the entry point for the lore-sharing server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version          = "0.1.0-dev"
	globalConfigPath string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "lore-sharing",
		Short:   "A service for sharing lore timelines between users",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalConfigPath, "config", "c", "lore-sharing.yaml", "Path to the config file")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPopulateCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
