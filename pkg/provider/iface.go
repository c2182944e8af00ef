package provider

import "context"

// Client defines the provider API surface the sync engine consumes.
type Client interface {
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error)
	GetBalances(ctx context.Context, accessToken string) ([]AccountSnapshot, error)
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
