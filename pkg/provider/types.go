package provider

// TransactionEntry is one added or modified entry in a diff page.
// Amount is signed minor units: positive is money out, negative money in.
type TransactionEntry struct {
	ID                   string `json:"transaction_id"`
	AccountID            string `json:"account_id"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"iso_currency_code"`
	Date                 string `json:"date"`
	Name                 string `json:"name"`
	Pending              bool   `json:"pending"`
	PendingTransactionID string `json:"pending_transaction_id,omitempty"`
	Category             string `json:"personal_finance_category,omitempty"`
}

// RemovedEntry carries only the id of a transaction the provider has
// withdrawn from the feed.
type RemovedEntry struct {
	ID        string `json:"transaction_id"`
	AccountID string `json:"account_id,omitempty"`
}

// SyncResponse is one diff page of the provider's change feed.
type SyncResponse struct {
	Added      []TransactionEntry `json:"added"`
	Modified   []TransactionEntry `json:"modified"`
	Removed    []RemovedEntry     `json:"removed"`
	NextCursor string             `json:"next_cursor"`
	HasMore    bool               `json:"has_more"`
}

// Balances is the point-in-time balance snapshot for one account.
// Values are minor units; Available and Limit are nil when the provider
// does not report them for the account type.
type Balances struct {
	Current   int64  `json:"current"`
	Available *int64 `json:"available"`
	Limit     *int64 `json:"limit"`
	Currency  string `json:"iso_currency_code"`
}

// AccountSnapshot describes one account as the provider currently sees
// it, returned by the balance endpoint.
type AccountSnapshot struct {
	ID       string   `json:"account_id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Subtype  string   `json:"subtype"`
	Mask     string   `json:"mask"`
	Balances Balances `json:"balances"`
}
