package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
databasePath: /var/lib/ledgerlink/ledger.db
listenAddr: ":9090"
provider:
  baseUrl: https://production.provider.example
  clientId: client-id
  secret: client-secret
  pageTimeoutSeconds: 60
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DatabasePath != "/var/lib/ledgerlink/ledger.db" {
		t.Errorf("DatabasePath = %q", config.DatabasePath)
	}
	if config.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", config.ListenAddr)
	}
	if config.Provider.ClientID != "client-id" || config.Provider.Secret != "client-secret" {
		t.Error("provider credentials not loaded")
	}
	if config.Provider.PageTimeoutSeconds != 60 {
		t.Errorf("PageTimeoutSeconds = %d, want 60", config.Provider.PageTimeoutSeconds)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
provider:
  clientId: client-id
  secret: client-secret
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DatabasePath != "ledgerlink.db" {
		t.Errorf("DatabasePath = %q, want default", config.DatabasePath)
	}
	if config.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default", config.ListenAddr)
	}
	if config.Provider.PageTimeoutSeconds != 30 {
		t.Errorf("PageTimeoutSeconds = %d, want default 30", config.Provider.PageTimeoutSeconds)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	// Callers distinguish "no file yet" from parse errors through the
	// wrapped chain.
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v should match os.ErrNotExist", err)
	}
}

func TestGetConfigCreatesDefaultFile(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	configMutex.Lock()
	globalConfig = nil
	configLoaded = false
	configMutex.Unlock()

	config, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if config.DatabasePath != "ledgerlink.db" {
		t.Errorf("DatabasePath = %q, want default", config.DatabasePath)
	}
	if _, err := os.Stat("config.yaml"); err != nil {
		t.Errorf("expected default config file to be written: %v", err)
	}
}
