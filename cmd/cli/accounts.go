package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpnda/ledgerlink/pkg/models"
)

func newAccountsCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with balances and sync health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			accounts, err := store.ListAccountsForUser(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				fmt.Println("No accounts found.")
				return nil
			}

			for _, account := range accounts {
				printAccount(account)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id to list accounts for")
	return cmd
}

func printAccount(account *models.Account) {
	fmt.Printf("%-4d %-30s %12s", account.ID, account.Name, account.BalanceAmount().Display())

	if account.IsCredit() && account.AvailableCredit != nil {
		available := models.Amount{Value: *account.AvailableCredit, Currency: account.Currency}
		fmt.Printf("  (available credit %s)", available.Display())
	}

	fmt.Printf("  [%s", account.SyncStatus)
	if account.LastSyncAt != nil {
		fmt.Printf(", synced %s", account.LastSyncAt.Format(time.RFC3339))
	}
	if account.LastSyncError != nil {
		fmt.Printf(", error: %s", *account.LastSyncError)
	}
	fmt.Println("]")
}
