package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/condition"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/database"
)

var errConditionsFailed = errors.New("some conditions failed to compile")

func newConditionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Inspect achievement conditions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [expression...]",
		Short: "Compile the given expressions, or every stored achievement condition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				rows := make([]repo.AchievementRow, len(args))
				for i, src := range args {
					rows[i] = repo.AchievementRow{ID: int64(i + 1), Name: "arg", Cond: src}
				}
				return checkConditions(cmd.OutOrStdout(), rows)
			}

			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()

			rows, err := repo.NewWorldRepo(db).Achievements(cmd.Context())
			if err != nil {
				return fmt.Errorf("load achievements: %w", err)
			}
			return checkConditions(cmd.OutOrStdout(), rows)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "fields",
		Short: "List the score fields a condition may reference",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			names := condition.Fields()
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	})
	return cmd
}

func checkConditions(out io.Writer, rows []repo.AchievementRow) error {
	failed := 0
	for _, row := range rows {
		if _, err := condition.Compile(row.Cond); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %d %s: %v\n", row.ID, row.Name, err)
		}
	}
	fmt.Fprintf(out, "%d/%d conditions compile\n", len(rows)-failed, len(rows))
	if failed > 0 {
		return errConditionsFailed
	}
	return nil
}
