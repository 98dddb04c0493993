package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	p := filepath.Join(t.TempDir(), "config.json")
	jsonBody := `{
		"vault": {
			"dir": "/srv/vault",
			"lock_timeout": "2s",
			"idle_timeout": "30m",
			"max_failed_attempts": 3,
			"lockout_cooldown": 60000000000
		},
		"kdf": {
			"memory_kib": 32768,
			"iterations": 2,
			"parallelism": 1,
			"cipher": "aes-256-gcm"
		},
		"log": { "level": "error", "file": "/tmp/cv.log" }
	}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/srv/vault", cfg.Vault.Dir)
	assert.Equal(t, 2*time.Second, cfg.Vault.LockTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Vault.IdleTimeout)
	assert.Equal(t, 3, cfg.Vault.MaxFailedAttempts)
	assert.Equal(t, time.Minute, cfg.Vault.LockoutCooldown)
	assert.Equal(t, uint32(32768), cfg.KDF.MemoryKiB)
	assert.Equal(t, uint32(2), cfg.KDF.Iterations)
	assert.Equal(t, uint8(1), cfg.KDF.Parallelism)
	assert.Equal(t, "aes-256-gcm", cfg.KDF.Cipher)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/cv.log", cfg.Log.File)
	assert.Empty(t, cfg.JSONFilePath, "a config file cannot point at another one")
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"vault": `},
		{"unknown field", `{"vault": {"passphrase": "hunter2"}}`},
		{"bad duration", `{"vault": {"lock_timeout": "soon"}}`},
		{"wrong type", `{"kdf": {"iterations": "many"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(p, []byte(tt.body), 0o600))

			cfg, err := parseJSON(p)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "error decoding json configs")
		})
	}
}

func TestParseJSON_MissingFile(t *testing.T) {
	cfg, err := parseJSON(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1h30m"`), &d))
	assert.Equal(t, 90*time.Minute, time.Duration(d))

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, time.Duration(d))

	out, err := json.Marshal(Duration(5 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"5s"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`true`), &d))
}
