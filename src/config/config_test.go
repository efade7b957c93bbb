package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "MONGODB_URI", "HASH_ROUND", "SALT", "APP_MODE",
		"ILIX_DB_NAME", "ILIX_POOL_COLLECTION", "ILIX_TRANSFER_COLLECTION",
		"ILIX_BUCKET_NAME", "ILIX_DICTIONARY_PATH", "ILIX_TEMP_DIR",
	}
	for _, k := range keys {
		orig, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, orig)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	os.Setenv("PORT", "8080")
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	os.Setenv("HASH_ROUND", "5")
	os.Setenv("SALT", "pepper")
}

func TestLoadFailsFastOnMissingPort(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadFailsFastOnNonNumericPort(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	os.Setenv("PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u16")
}

func TestLoadFailsFastOnLowHashRound(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	os.Setenv("HASH_ROUND", "1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HASH_ROUND")
}

func TestLoadFailsFastOnEmptySalt(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	os.Setenv("SALT", "   ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SALT")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ilix", cfg.DBName)
	assert.Equal(t, "devices_pools", cfg.PoolCollection)
	assert.Equal(t, "files_transfers", cfg.TransferCollection)
	assert.Equal(t, 5, cfg.HashRound)
}

func TestLoadDefaultsToProdOnEmptyAppMode(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Prod)
	assert.Equal(t, "0.0.0.0:8080", cfg.BindAddr())
}

func TestLoadRespectsExplicitAppMode(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	os.Setenv("APP_MODE", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Prod)
	assert.Equal(t, "127.0.0.1:8080", cfg.BindAddr())
}
