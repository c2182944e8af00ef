package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var (
		userID       int64
		connectionID int64
		full         bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync transactions and balances from the provider",
		Long:  `Runs the incremental sync for one connection or fans out over all of a user's connections. Failures are recorded on the affected accounts and resumed from the last checkpoint on the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 && connectionID == 0 {
				return fmt.Errorf("either --user or --connection is required")
			}
			if full && connectionID == 0 {
				return fmt.Errorf("--full requires --connection")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := newEngine(store)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch {
			case full:
				return engine.FullResync(ctx, connectionID)
			case connectionID != 0:
				return engine.SyncConnection(ctx, connectionID)
			default:
				return engine.SyncUser(ctx, userID)
			}
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Sync every connection for this user id")
	cmd.Flags().Int64Var(&connectionID, "connection", 0, "Sync a single connection id")
	cmd.Flags().BoolVar(&full, "full", false, "Discard the cursor and replay the feed from the start")
	return cmd
}
