package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	defaults := DefaultConfig()
	if config.Auth.ClientID != defaults.Auth.ClientID {
		t.Errorf("ClientID = %q, want default %q", config.Auth.ClientID, defaults.Auth.ClientID)
	}
	if config.Auth.Storage != StorageKeyring {
		t.Errorf("Storage = %q, want keyring default", config.Auth.Storage)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  baseURL: https://campus.test/api
auth:
  issuer: https://idp.test
  clientID: my-cli
  storage: file
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Server.BaseURL != "https://campus.test/api" {
		t.Errorf("BaseURL = %q", config.Server.BaseURL)
	}
	if config.Auth.Issuer != "https://idp.test" {
		t.Errorf("Issuer = %q", config.Auth.Issuer)
	}
	if config.Auth.Storage != StorageFile {
		t.Errorf("Storage = %q, want file", config.Auth.Storage)
	}
	// Unset values keep their defaults.
	if config.Auth.CallbackPort != 3000 {
		t.Errorf("CallbackPort = %d, want default 3000", config.Auth.CallbackPort)
	}
}

func TestLoad_PinnedEndpoints(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  authorization: https://idp.test/authorize
  token: https://idp.test/token
  userinfo: https://idp.test/userinfo
  endSession: https://idp.test/logout
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.Endpoints == nil {
		t.Fatal("Endpoints = nil, want pinned values")
	}
	if config.Endpoints.Token != "https://idp.test/token" {
		t.Errorf("Token = %q", config.Endpoints.Token)
	}
}

func TestLoad_InvalidStorage(t *testing.T) {
	path := writeConfig(t, `
auth:
  storage: floppy
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted an unknown storage backend")
	}
}

func TestLoad_IncompletePinnedEndpoints(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  authorization: https://idp.test/authorize
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted pinned endpoints without a token endpoint")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "auth: [not a map")

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed yaml")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
auth:
  clientID: from-env
`)
	t.Setenv(EnvConfigPath, path)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.Auth.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want from-env", config.Auth.ClientID)
	}
}
