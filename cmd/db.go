package cmd

import (
	"context"
	"fmt"
	"ringsync/internal"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(loadCmd)
	dropCmd.Flags().BoolVar(&dropConfirmed, "yes", false, "confirm dropping every table")
}

var dropConfirmed bool

// Partial failures are logged and printed but leave the exit status at zero.
func printFailed(action string, failed []string) {
	if len(failed) == 0 {
		fmt.Printf("%s: ok\n", action)
		return
	}
	fmt.Printf("%s: failed for %s\n", action, strings.Join(failed, ", "))
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and foreign key indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			printFailed("migrate", app.Migrate(ctx))
			return nil
		})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table, children first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !dropConfirmed {
			return fmt.Errorf("refusing to drop tables without --yes")
		}
		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			printFailed("drop", app.Drop(ctx))
			return nil
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [snapshot...]",
	Short: "Load snapshots into the database, every snapshot when none is named",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *internal.App) error {
			res, err := app.Load(ctx, args)
			if err != nil {
				return err
			}
			fmt.Printf("Files loaded: %d\n", res.Files)
			for _, table := range res.Tables() {
				fmt.Printf("  %-28s %d\n", table, res.Rows[table])
			}
			if res.Skipped > 0 {
				fmt.Printf("Records skipped: %d\n", res.Skipped)
			}
			printFailed("load", res.Failed)
			return nil
		})
	},
}
