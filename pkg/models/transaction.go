package models

// Transaction is a ledger entry. Amount is signed, in minor currency
// units: positive reduces available cash or increases debt, negative is
// money in. Income/expense classification is carried by the linked
// category's kind rather than the sign so manual overrides survive.
type Transaction struct {
	ID     int64
	UserID int64
	// AccountID is the internal ledger account the transaction belongs to.
	AccountID int64
	// ExternalID is the provider transaction id that produced this row,
	// empty for manually entered transactions. It lets an orphaned row be
	// re-associated with its mapping after a partial failure.
	ExternalID  string
	Amount      int64
	Currency    string
	Date        string
	Description string
	CategoryID  *int64
	Pending     bool
	// Notes is user-owned and never written by the sync engine.
	Notes string
}

func (t *Transaction) AmountValue() Amount {
	return Amount{Value: t.Amount, Currency: t.Currency}
}

// InconsistentKind reports whether the transaction's sign disagrees with
// the category kind it is filed under (an expense with money-in sign or
// an income with money-out sign). Totals grouped by kind drift when this
// holds, so reports surface it.
func (t *Transaction) InconsistentKind(kind CategoryKind) bool {
	switch kind {
	case CategoryIncome:
		return t.Amount > 0
	case CategoryExpense:
		return t.Amount < 0
	default:
		return false
	}
}

// TransactionMapping is the idempotency record associating a provider
// transaction id with exactly one internal transaction.
type TransactionMapping struct {
	UserID                int64
	ProviderTransactionID string
	ProviderAccountID     string
	TransactionID         int64
}
