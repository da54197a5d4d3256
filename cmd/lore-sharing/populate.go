package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
	"github.com/ersonp/lore-sharing/internal/infrastructure/relationaldb/sqlite"
)

// defaultUniverses is the seed set for an empty database.
var defaultUniverses = []entities.Universe{
	{Name: "Middle-earth", Description: "The world of J.R.R. Tolkien's legendarium"},
	{Name: "Westeros", Description: "The continent of A Song of Ice and Fire"},
	{Name: "Discworld", Description: "Terry Pratchett's flat world on the back of four elephants"},
}

// newPopulateCmd creates the populate command.
func newPopulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "populate",
		Short: "Seed an empty database with a test user and starter universes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(func(d *Deps) error {
				ctx := cmd.Context()

				if err := d.DB.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("ensuring schema: %w", err)
				}

				if err := populate(ctx, d.DB); err != nil {
					return err
				}
				d.Log.Info("database populated", "db", d.DB.Path())
				return nil
			})
		},
	}
}

// populate seeds a test user and the default universes, skipping each
// when rows already exist so it is safe to run repeatedly.
func populate(ctx context.Context, db *sqlite.Repository) error {
	users, err := db.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if users == 0 {
		if _, err := db.CreateUser(ctx, "test_user", nil); err != nil {
			return fmt.Errorf("seeding user: %w", err)
		}
	}

	universes, err := db.CountUniverses(ctx)
	if err != nil {
		return fmt.Errorf("counting universes: %w", err)
	}
	if universes == 0 {
		for _, universe := range defaultUniverses {
			if err := db.CreateUniverse(ctx, &universe); err != nil {
				return fmt.Errorf("seeding universe %q: %w", universe.Name, err)
			}
		}
	}
	return nil
}
