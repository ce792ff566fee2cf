package main

import (
	"fmt"

	"github.com/fekuna/omnipos-bloodbank-service/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(&cfg.Database)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()

		return migrations.Up(cmd.Context(), db, appLogger)
	},
}
