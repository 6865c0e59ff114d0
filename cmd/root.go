package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"ringsync/internal"
	"ringsync/internal/di"
	"ringsync/internal/structures"
	"syscall"

	"github.com/spf13/cobra"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "ringsync",
	Short: "Incremental Oura ring data sync",
	Long: `ringsync pulls biometric data from the Oura v2 usercollection API for the
window since the last snapshot, stores it as a dated JSON snapshot and
loads snapshots into a SQLite schema.

Running without a subcommand performs a fetch.`,
	SilenceUsage: true,
	RunE:         runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config/config.yml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "force debug logging")
}

// withApp builds the application for one command and closes it afterwards.
// Build errors are configuration or setup failures and end the process with
// a non-zero status.
func withApp(cmd *cobra.Command, run func(ctx context.Context, app *internal.App) error) error {
	app, err := di.InitApp(&flags)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer app.Close()
	return run(cmd.Context(), app)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
