package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/internal/vault"
	"github.com/MKhiriev/credvault/models"
)

// KDFParams returns the Argon2id parameters described by cfg.
func (cfg *StructuredConfig) KDFParams() models.KDFParams {
	return models.KDFParams{
		Algorithm:   models.KDFArgon2id,
		MemoryKiB:   cfg.KDF.MemoryKiB,
		Iterations:  cfg.KDF.Iterations,
		Parallelism: cfg.KDF.Parallelism,
		KeyLen:      models.RootKeyLength,
	}
}

// LogLevel returns the parsed diagnostic log level. An invalid level has
// already been rejected by validation and falls back to warn.
func (cfg *StructuredConfig) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.WarnLevel
	}
	return level
}

// VaultOptions converts cfg into the options the vault package expects.
func (cfg *StructuredConfig) VaultOptions(log *logger.Logger) (vault.Options, error) {
	suite, err := models.ParseCipherSuite(cfg.KDF.Cipher)
	if err != nil {
		return vault.Options{}, fmt.Errorf("%w: %w", ErrInvalidKDFConfigs, err)
	}

	return vault.Options{
		LockTimeout:       cfg.Vault.LockTimeout,
		IdleTimeout:       cfg.Vault.IdleTimeout,
		MaxFailedAttempts: cfg.Vault.MaxFailedAttempts,
		LockoutCooldown:   cfg.Vault.LockoutCooldown,
		KDF:               cfg.KDFParams(),
		Cipher:            suite,
		Logger:            log,
	}, nil
}
