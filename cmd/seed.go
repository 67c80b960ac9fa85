package cmd

import (
	"fmt"

	"fintrack/database"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create schema and the system transfer category",
		Long:  `Runs migrations and creates the system transfer category if it does not exist yet. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			if err := database.SeedSystemCategories(db, cfg.Transfer.CategoryName); err != nil {
				return fmt.Errorf("seed system categories: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "system category %q is ready\n", cfg.Transfer.CategoryName)
			return nil
		},
	}
}
