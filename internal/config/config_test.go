package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://bills.example.com"
	cfg.Receipts.Required = true
	cfg.Server.Users = []UserConfig{
		{Email: "employee@test.com", Password: "employee", Type: "Employee"},
	}

	path := filepath.Join(t.TempDir(), "billed.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://bills.example.com", got.API.BaseURL)
	assert.True(t, got.Receipts.Required)
	assert.Equal(t, cfg.Session.File, got.Session.File)
	assert.Equal(t, cfg.Server.TokenHours, got.Server.TokenHours)
	require.Len(t, got.Server.Users, 1)
	assert.Equal(t, "employee@test.com", got.Server.Users[0].Email)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:5678", cfg.API.BaseURL)
	assert.Equal(t, ".billed/session.yaml", cfg.Session.File)
	assert.False(t, cfg.Receipts.Required)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":5678", cfg.Server.Address)
	assert.Equal(t, 24, cfg.Server.TokenHours)
	assert.Empty(t, cfg.Server.Users)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://remote:9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://remote:9000", cfg.API.BaseURL)
	assert.Equal(t, ".billed/session.yaml", cfg.Session.File)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billed.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: http://localhost:5678")
	assert.Contains(t, contents, "required: false")
	assert.Contains(t, contents, "activity_log: .billed/activity.csv")
}
