package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/database"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the relational schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create missing tables (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()

			if err := repo.EnsureSchema(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.Database.Driver)
			return nil
		},
	})
	return cmd
}
