// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FormatVersion is the only vault file layout this build reads and writes.
const FormatVersion uint32 = 1

// KDF parameter bounds. Values outside them are rejected both when a vault
// is created and when a header is read back, so a tampered header cannot
// make unlock allocate unbounded memory.
const (
	MinKDFMemoryKiB   uint32 = 8 * 1024
	MaxKDFMemoryKiB   uint32 = 4 * 1024 * 1024
	MaxKDFIterations  uint32 = 64
	RootKeyLength     uint32 = 32
	MaxKDFParallelism uint8  = 64
)

var (
	ErrInvalidKDFParams  = errors.New("invalid kdf parameters")
	ErrUnsupportedCipher = errors.New("unsupported cipher suite")
)

// KDFAlgorithm identifies the password hashing function.
type KDFAlgorithm uint8

// KDFArgon2id is Argon2id (RFC 9106).
const KDFArgon2id KDFAlgorithm = 1

// String returns the algorithm name.
func (a KDFAlgorithm) String() string {
	if a == KDFArgon2id {
		return "argon2id"
	}
	return fmt.Sprintf("kdf(%d)", uint8(a))
}

// KDFParams holds the cost parameters a root key was derived with. They are
// persisted in the header so that every later derivation uses exactly the
// same values.
type KDFParams struct {
	Algorithm   KDFAlgorithm
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	KeyLen      uint32
}

// Validate checks p against the supported bounds.
func (p KDFParams) Validate() error {
	switch {
	case p.Algorithm != KDFArgon2id:
		return fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidKDFParams, p.Algorithm)
	case p.MemoryKiB < MinKDFMemoryKiB || p.MemoryKiB > MaxKDFMemoryKiB:
		return fmt.Errorf("%w: memory must be within [%d, %d] KiB", ErrInvalidKDFParams, MinKDFMemoryKiB, MaxKDFMemoryKiB)
	case p.Iterations == 0 || p.Iterations > MaxKDFIterations:
		return fmt.Errorf("%w: iterations must be within [1, %d]", ErrInvalidKDFParams, MaxKDFIterations)
	case p.Parallelism == 0 || p.Parallelism > MaxKDFParallelism:
		return fmt.Errorf("%w: parallelism must be within [1, %d]", ErrInvalidKDFParams, MaxKDFParallelism)
	case p.KeyLen != RootKeyLength:
		return fmt.Errorf("%w: key length must be %d", ErrInvalidKDFParams, RootKeyLength)
	default:
		return nil
	}
}

// CipherSuite identifies the AEAD used for both the wrapped DEK and the
// records of one vault.
type CipherSuite uint8

const (
	// CipherAES256GCM is AES-256 in Galois/Counter Mode with 96-bit random
	// nonces.
	CipherAES256GCM CipherSuite = 1

	// CipherXChaCha20Poly1305 is XChaCha20-Poly1305 with 192-bit random
	// nonces.
	CipherXChaCha20Poly1305 CipherSuite = 2
)

// String returns the suite name used in configuration.
func (c CipherSuite) String() string {
	switch c {
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherXChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return fmt.Sprintf("cipher(%d)", uint8(c))
	}
}

// Valid reports whether c is a known suite.
func (c CipherSuite) Valid() bool {
	return c == CipherAES256GCM || c == CipherXChaCha20Poly1305
}

// ParseCipherSuite maps a configuration name to a [CipherSuite].
func ParseCipherSuite(s string) (CipherSuite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aes-256-gcm", "aes256gcm", "aes":
		return CipherAES256GCM, nil
	case "xchacha20-poly1305", "xchacha20poly1305", "xchacha":
		return CipherXChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCipher, s)
	}
}

// WrappedKey is an AEAD output: the random nonce and the ciphertext with
// its authentication tag appended.
type WrappedKey struct {
	Nonce      []byte
	Ciphertext []byte
}

// VaultHeader is the fixed part of the vault file. It only changes when the
// master password is rotated.
type VaultHeader struct {
	FormatVersion uint32
	Salt          []byte
	KDF           KDFParams
	Cipher        CipherSuite

	// VaultID is bound into every associated-data string, so records and
	// wrapped keys cannot be moved between vaults.
	VaultID    uuid.UUID
	WrappedDEK WrappedKey
}

// EncryptedRecord is the persisted form of one credential: its metadata in
// the clear and the secret sealed under the DEK.
type EncryptedRecord struct {
	Metadata   CredentialMetadata
	Nonce      []byte
	Ciphertext []byte
}
