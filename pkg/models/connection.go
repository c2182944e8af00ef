package models

import "time"

type ConnectionStatus string

const (
	ConnectionActive ConnectionStatus = "active"
	ConnectionError  ConnectionStatus = "error"
)

// Connection is one authorized link between a user and a provider
// institution login (the provider calls this an "item").
type Connection struct {
	ID     int64
	UserID int64
	// AccessToken is the opaque provider credential. It is passed through
	// to provider calls unchanged and must never be logged or serialized.
	AccessToken     string `json:"-"`
	ProviderItemID  string
	InstitutionID   string
	InstitutionName string
	Status          ConnectionStatus
	// SyncCursor is nil until the first diff page has been applied.
	SyncCursor   *string
	LastSyncedAt *time.Time
}

// AccountLink ties a provider account id to an internal account, scoped
// to one connection. Descriptive fields are cached from the provider's
// last account snapshot.
type AccountLink struct {
	ConnectionID      int64
	ProviderAccountID string
	AccountID         int64
	Name              string
	Type              string
	Subtype           string
	Mask              string
}
