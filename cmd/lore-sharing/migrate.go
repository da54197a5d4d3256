package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the migrate command.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.DB.EnsureSchema(cmd.Context()); err != nil {
					return fmt.Errorf("ensuring schema: %w", err)
				}
				d.Log.Info("schema ready", "db", d.DB.Path())
				return nil
			})
		},
	}
}
