package cmd

import (
	"context"
	"fmt"
	"ringsync/internal"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(rangeCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every category for the next window and write a snapshot",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func runFetch(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *internal.App) error {
		res, err := app.Fetch(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Window:   %s\n", res.Range)
		fmt.Printf("Snapshot: %s\n", res.Path)
		fmt.Printf("Records:  %d (%d pending)\n", res.Records, res.Pending)
		if len(res.Failed) > 0 {
			fmt.Printf("Failed:   %v\n", res.Failed)
		}
		return nil
	})
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Print the window the next fetch would request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(_ context.Context, app *internal.App) error {
			r, err := app.NextRange(time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", r.Start, r.End)
			return nil
		})
	},
}
