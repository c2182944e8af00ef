package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultPageSize = 250

// HTTPClient talks to the provider's REST API. Access tokens are passed
// through per call and never retained or logged.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	clientID string
	secret   string
	pageSize int
}

type ClientOption func(*HTTPClient)

// WithDebugLogging dumps every request and response to the debug log.
// Request bodies include access tokens; sandbox use only.
func WithDebugLogging() ClientOption {
	return func(c *HTTPClient) {
		c.client.Transport = DebugRoundTripper()
	}
}

func NewHTTPClient(baseURL, clientID, secret string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		client:   &http.Client{Timeout: 60 * time.Second},
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type syncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
	Count       int    `json:"count"`
}

type balanceRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type balanceResponse struct {
	Accounts []AccountSnapshot `json:"accounts"`
}

// SyncTransactions fetches the next diff page of the change feed. An
// empty cursor means "from the beginning of the feed".
func (c *HTTPClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	body := syncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       c.pageSize,
	}

	var page SyncResponse
	if err := c.post(ctx, "/transactions/sync", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBalances fetches the provider's current balance snapshot for every
// account under the item.
func (c *HTTPClient) GetBalances(ctx context.Context, accessToken string) ([]AccountSnapshot, error) {
	body := balanceRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}

	var resp balanceResponse
	if err := c.post(ctx, "/accounts/balance/get", body, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Code == "" {
			return fmt.Errorf("request to %s returned status %d", path, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
