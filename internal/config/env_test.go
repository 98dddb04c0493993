// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	setEnvVars(t, map[string]string{
		"CREDVAULT_CONFIG": "/path/to/config.json",

		"CREDVAULT_VAULT_DIR":                 "/srv/vault",
		"CREDVAULT_VAULT_LOCK_TIMEOUT":        "2s",
		"CREDVAULT_VAULT_IDLE_TIMEOUT":        "15m",
		"CREDVAULT_VAULT_MAX_FAILED_ATTEMPTS": "-1",
		"CREDVAULT_VAULT_LOCKOUT_COOLDOWN":    "1m",

		"CREDVAULT_KDF_MEMORY_KIB":  "131072",
		"CREDVAULT_KDF_ITERATIONS":  "4",
		"CREDVAULT_KDF_PARALLELISM": "2",
		"CREDVAULT_KDF_CIPHER":      "xchacha20-poly1305",

		"CREDVAULT_LOG_LEVEL": "debug",
		"CREDVAULT_LOG_FILE":  "/tmp/credvault.log",
	})

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "/srv/vault", cfg.Vault.Dir)
	assert.Equal(t, 2*time.Second, cfg.Vault.LockTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Vault.IdleTimeout)
	assert.Equal(t, -1, cfg.Vault.MaxFailedAttempts)
	assert.Equal(t, time.Minute, cfg.Vault.LockoutCooldown)

	assert.Equal(t, uint32(131072), cfg.KDF.MemoryKiB)
	assert.Equal(t, uint32(4), cfg.KDF.Iterations)
	assert.Equal(t, uint8(2), cfg.KDF.Parallelism)
	assert.Equal(t, "xchacha20-poly1305", cfg.KDF.Cipher)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/credvault.log", cfg.Log.File)
}

func TestParseEnv_IgnoresUnprefixed(t *testing.T) {
	// Arrange
	setEnvVars(t, map[string]string{
		"VAULT_DIR": "/not/used",
		"CONFIG":    "/not/used.json",
	})

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, cfg.Vault.Dir)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "CREDVAULT_VAULT_LOCK_TIMEOUT", "soon"},
		{"bad int", "CREDVAULT_VAULT_MAX_FAILED_ATTEMPTS", "five"},
		{"parallelism overflow", "CREDVAULT_KDF_PARALLELISM", "300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			err := parseEnv(&StructuredConfig{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error getting env configs")
		})
	}
}

func TestParseEnv_NoPassphraseField(t *testing.T) {
	t.Setenv("CREDVAULT_PASSPHRASE", "hunter2")
	t.Setenv("CREDVAULT_VAULT_PASSPHRASE", "hunter2")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	// Nothing in the config may pick up a passphrase from the environment.
	assert.NotContains(t, fmtConfig(cfg), "hunter2")
}
