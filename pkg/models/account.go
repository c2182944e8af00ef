package models

import "time"

type SyncStatus string

const (
	SyncStatusOK    SyncStatus = "ok"
	SyncStatusError SyncStatus = "error"
)

const AccountTypeCredit = "credit"

// Account is the canonical ledger account shared with the rest of the
// application. The sync engine owns the balance and sync_* fields.
type Account struct {
	ID       int64
	UserID   int64
	Name     string
	Type     string
	Subtype  string
	Mask     string
	Currency string
	// Balance is in minor currency units. For credit accounts a positive
	// balance means money owed.
	Balance          int64
	AvailableBalance *int64
	CreditLimit      *int64
	AvailableCredit  *int64
	SyncStatus       SyncStatus
	LastSyncAt       *time.Time
	LastSyncError    *string
}

func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// BalanceAmount returns the balance as a displayable amount.
func (a *Account) BalanceAmount() Amount {
	return Amount{Value: a.Balance, Currency: a.Currency}
}
