package provider

import (
	"errors"
	"fmt"
)

// Error codes that require the user to re-authenticate the item. These
// are never retried automatically; the connection is marked unhealthy
// until an out-of-band re-auth.
const (
	CodeItemLoginRequired  = "ITEM_LOGIN_REQUIRED"
	CodeInvalidAccessToken = "INVALID_ACCESS_TOKEN"
	CodeItemLocked         = "ITEM_LOCKED"
)

// APIError is a structured error body returned by the provider.
type APIError struct {
	Type       string `json:"error_type"`
	Code       string `json:"error_code"`
	Message    string `json:"error_message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error %s (%s): %s", e.Code, e.Type, e.Message)
}

// IsAuthError reports whether err is a credential failure that needs
// re-authentication rather than a retry.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeItemLoginRequired, CodeInvalidAccessToken, CodeItemLocked:
		return true
	}
	return false
}
