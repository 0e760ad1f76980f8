package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/jetreco/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate <up|down|status|version N|force N|help>",
		Short: "Manage the product database schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrateCommand(cmd.OutOrStdout(), args, dbPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "jets.db", "path to the SQLite product database")
	return cmd
}
