// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"

	"github.com/MKhiriev/credvault/models"
)

const (
	// SaltSize is the length of the per-vault KDF salt (128 bits).
	SaltSize = 16

	// KeySize is the length of both the root key and the DEK (256 bits).
	KeySize = 32

	defaultMemoryKiB  uint32 = 64 * 1024
	defaultIterations uint32 = 3
)

// DefaultKDFParams returns the Argon2id parameters used for new vaults:
//   - memory cost: 64 MiB
//   - time cost:   3 iterations
//   - parallelism: number of CPUs, capped at 4
//   - key length:  32 bytes
//
// On commodity hardware one derivation takes a few hundred milliseconds.
func DefaultKDFParams() models.KDFParams {
	parallelism := min(runtime.NumCPU(), 4)
	parallelism = max(parallelism, 1)

	return models.KDFParams{
		Algorithm:   models.KDFArgon2id,
		MemoryKiB:   defaultMemoryKiB,
		Iterations:  defaultIterations,
		Parallelism: uint8(parallelism),
		KeyLen:      KeySize,
	}
}

// MinimalKDFParams returns the cheapest parameters [models.KDFParams.Validate]
// accepts. They exist for tests and throwaway vaults; never use them for a
// vault that holds real secrets.
func MinimalKDFParams() models.KDFParams {
	return models.KDFParams{
		Algorithm:   models.KDFArgon2id,
		MemoryKiB:   models.MinKDFMemoryKiB,
		Iterations:  1,
		Parallelism: 1,
		KeyLen:      KeySize,
	}
}

func deriveKey(passphrase, salt []byte, params models.KDFParams) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidSalt, SaltSize, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return argon2.IDKey(passphrase, salt, params.Iterations, params.MemoryKiB, params.Parallelism, params.KeyLen), nil
}
