// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/credvault/models"
)

// validate checks that the final merged [StructuredConfig] can be turned
// into vault options. Defaults have already been merged in, so every field
// is expected to be set.
//
// Returns nil if the configuration is valid, or an error wrapping one of
// the ErrInvalid* sentinels otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Vault.Dir == "" {
		return fmt.Errorf("%w: vault directory is empty", ErrInvalidVaultConfigs)
	}
	if cfg.Vault.LockTimeout < 0 {
		return fmt.Errorf("%w: lock timeout must not be negative", ErrInvalidVaultConfigs)
	}
	if cfg.Vault.LockoutCooldown < 0 {
		return fmt.Errorf("%w: lockout cooldown must not be negative", ErrInvalidVaultConfigs)
	}

	if err := cfg.KDFParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKDFConfigs, err)
	}
	if _, err := models.ParseCipherSuite(cfg.KDF.Cipher); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKDFConfigs, err)
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogConfigs, err)
	}
	return nil
}
