package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/vault"
	"github.com/MKhiriev/credvault/models"
)

// DefaultDirName is the vault directory created under the user's home.
const DefaultDirName = ".credvault"

// Defaults returns the lowest-priority config layer.
func Defaults() (*StructuredConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving home directory: %w", err)
	}

	kdf := crypto.DefaultKDFParams()
	return &StructuredConfig{
		Vault: Vault{
			Dir:               filepath.Join(home, DefaultDirName),
			LockTimeout:       vault.DefaultLockTimeout,
			IdleTimeout:       vault.DefaultIdleTimeout,
			MaxFailedAttempts: vault.DefaultMaxFailedAttempts,
			LockoutCooldown:   vault.DefaultLockoutCooldown,
		},
		KDF: KDF{
			MemoryKiB:   kdf.MemoryKiB,
			Iterations:  kdf.Iterations,
			Parallelism: kdf.Parallelism,
			Cipher:      models.CipherAES256GCM.String(),
		},
		Log: Log{
			Level: "warn",
		},
	}, nil
}
