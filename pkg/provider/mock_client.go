package provider

import "context"

// MockClient is a scripted provider for testing. Pages are served in
// order, keyed by the cursor the caller presents, so a re-fetch with an
// old cursor replays the same page the way the real feed does.
type MockClient struct {
	// Pages maps a request cursor to the page served for it. The empty
	// string key is the first page of the feed.
	Pages    map[string]*SyncResponse
	Accounts []AccountSnapshot

	// Error values to return
	SyncErr     error
	BalancesErr error

	// SyncCalls records each cursor presented, in order.
	SyncCalls []string
}

// NewMockClient creates a new mock provider client
func NewMockClient() *MockClient {
	return &MockClient{
		Pages: make(map[string]*SyncResponse),
	}
}

func (m *MockClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	m.SyncCalls = append(m.SyncCalls, cursor)
	if m.SyncErr != nil {
		return nil, m.SyncErr
	}

	page, ok := m.Pages[cursor]
	if !ok {
		// Past the end of the scripted feed: an empty terminal page.
		return &SyncResponse{NextCursor: cursor, HasMore: false}, nil
	}
	return page, nil
}

func (m *MockClient) GetBalances(ctx context.Context, accessToken string) ([]AccountSnapshot, error) {
	if m.BalancesErr != nil {
		return nil, m.BalancesErr
	}
	return m.Accounts, nil
}
