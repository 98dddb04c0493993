// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "CREDVAULT_"

// StructuredConfig is the top-level configuration container for the
// credvault command. It aggregates all sub-configurations and is populated
// by merging values from command-line flags, environment variables, an
// optional JSON file and finally the built-in defaults.
//
// The master passphrase is deliberately absent: it is only ever read from
// an interactive prompt.
//
// Struct tags:
//   - envPrefix : prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Vault holds the location of the vault and the limits applied to
	// sessions opened on it.
	Vault Vault `envPrefix:"VAULT_"`

	// KDF holds the key-derivation cost and cipher used when a vault is
	// created or its master password is rotated. Existing vaults keep the
	// parameters recorded in their header.
	KDF KDF `envPrefix:"KDF_"`

	// Log holds diagnostic logging settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CREDVAULT_CONFIG environment variable or the
	// -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Vault holds the vault location and session limits.
type Vault struct {
	// Dir is the vault directory holding vault.dat, audit.log and
	// vault.lock. Defaults to ~/.credvault.
	// Env: CREDVAULT_VAULT_DIR
	Dir string `env:"DIR"`

	// LockTimeout bounds how long an operation waits for the vault lock
	// before failing with a busy error (e.g. "5s").
	// Env: CREDVAULT_VAULT_LOCK_TIMEOUT
	LockTimeout time.Duration `env:"LOCK_TIMEOUT"`

	// IdleTimeout closes a session that has not been used for this long.
	// A negative value disables it.
	// Env: CREDVAULT_VAULT_IDLE_TIMEOUT
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT"`

	// MaxFailedAttempts is the number of consecutive failed unlocks after
	// which further attempts are refused for LockoutCooldown. A negative
	// value disables the lockout.
	// Env: CREDVAULT_VAULT_MAX_FAILED_ATTEMPTS
	MaxFailedAttempts int `env:"MAX_FAILED_ATTEMPTS"`

	// LockoutCooldown is how long the lockout lasts after the last failure.
	// Env: CREDVAULT_VAULT_LOCKOUT_COOLDOWN
	LockoutCooldown time.Duration `env:"LOCKOUT_COOLDOWN"`
}

// KDF holds Argon2id cost parameters and the AEAD cipher name.
type KDF struct {
	// MemoryKiB is the Argon2id memory cost in KiB.
	// Env: CREDVAULT_KDF_MEMORY_KIB
	MemoryKiB uint32 `env:"MEMORY_KIB"`

	// Iterations is the Argon2id time cost.
	// Env: CREDVAULT_KDF_ITERATIONS
	Iterations uint32 `env:"ITERATIONS"`

	// Parallelism is the Argon2id lane count.
	// Env: CREDVAULT_KDF_PARALLELISM
	Parallelism uint8 `env:"PARALLELISM"`

	// Cipher is "aes-256-gcm" or "xchacha20-poly1305".
	// Env: CREDVAULT_KDF_CIPHER
	Cipher string `env:"CIPHER"`
}

// Log holds diagnostic logging settings. Diagnostic logs never contain
// secrets; the audit log is separate and always on.
type Log struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Env: CREDVAULT_LOG_LEVEL
	Level string `env:"LEVEL"`

	// File, when set, sends diagnostic logs to that file instead of stderr.
	// Env: CREDVAULT_LOG_FILE
	File string `env:"FILE"`
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources in the following priority order (the first source
// that sets a field wins):
//  1. Command-line flags parsed from args
//  2. Environment variables
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// It returns the merged config together with the arguments left after the
// flags, which hold the subcommand.
func GetStructuredConfig(args []string) (*StructuredConfig, []string, error) {
	b := newConfigBuilder().
		withFlags(args).
		withEnv().
		withJSON().
		withDefaults()

	cfg, err := b.build()
	return cfg, b.rest, err
}
