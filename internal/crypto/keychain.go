// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/credvault/models"
)

// keyChainService is the private implementation of [KeyChainService].
type keyChainService struct {
	suite models.CipherSuite
}

// NewKeyChainService constructs a [KeyChainService] that seals with suite.
// A vault records its suite in the header, so the same suite must be used
// for every later unlock of that vault.
func NewKeyChainService(suite models.CipherSuite) (KeyChainService, error) {
	if !suite.Valid() {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedCipher, suite)
	}
	return &keyChainService{suite: suite}, nil
}

// Suite implements [KeyChainService].
func (k *keyChainService) Suite() models.CipherSuite {
	return k.suite
}

// GenerateSalt implements [KeyChainService]. It reads SaltSize random bytes
// from the OS CSPRNG.
func (k *keyChainService) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateDEK implements [KeyChainService]. The random bytes are moved into
// a locked buffer and the heap copy is wiped.
func (k *keyChainService) GenerateDEK() (*memguard.LockedBuffer, error) {
	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("generate dek: %w", err)
	}
	defer memguard.WipeBytes(raw)

	return memguard.NewBufferFromBytes(raw), nil
}

// DeriveRootKey implements [KeyChainService]. It runs Argon2id with exactly
// the parameters recorded in the vault header.
func (k *keyChainService) DeriveRootKey(passphrase, salt []byte, params models.KDFParams) (*memguard.LockedBuffer, error) {
	key, err := deriveKey(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	return memguard.NewBufferFromBytes(key), nil
}

// WrapDEK implements [KeyChainService].
func (k *keyChainService) WrapDEK(dek, rootKey *memguard.LockedBuffer, aad []byte) (models.WrappedKey, error) {
	if err := checkKey(dek); err != nil {
		return models.WrappedKey{}, fmt.Errorf("dek: %w", err)
	}
	aead, err := k.aeadFor(rootKey)
	if err != nil {
		return models.WrappedKey{}, err
	}

	nonce, ciphertext, err := seal(aead, dek.Bytes(), aad)
	if err != nil {
		return models.WrappedKey{}, fmt.Errorf("wrap dek: %w", err)
	}
	return models.WrappedKey{Nonce: nonce, Ciphertext: ciphertext}, nil
}

// UnwrapDEK implements [KeyChainService]. An authentication failure here is
// the only signal that the passphrase was wrong; there is no stored
// password hash to compare against.
func (k *keyChainService) UnwrapDEK(wrapped models.WrappedKey, rootKey *memguard.LockedBuffer, aad []byte) (*memguard.LockedBuffer, error) {
	aead, err := k.aeadFor(rootKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := open(aead, wrapped.Nonce, wrapped.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("unwrap dek: %w", err)
	}
	if len(plaintext) != KeySize {
		memguard.WipeBytes(plaintext)
		return nil, fmt.Errorf("unwrap dek: %w: unexpected key length", ErrMalformedCiphertext)
	}

	buf := memguard.NewBufferFromBytes(plaintext)
	memguard.WipeBytes(plaintext)
	return buf, nil
}

// EncryptRecord implements [KeyChainService].
func (k *keyChainService) EncryptRecord(plaintext []byte, dek *memguard.LockedBuffer, aad []byte) ([]byte, []byte, error) {
	aead, err := k.aeadFor(dek)
	if err != nil {
		return nil, nil, err
	}

	nonce, ciphertext, err := seal(aead, plaintext, aad)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt record: %w", err)
	}
	return nonce, ciphertext, nil
}

// DecryptRecord implements [KeyChainService].
func (k *keyChainService) DecryptRecord(nonce, ciphertext []byte, dek *memguard.LockedBuffer, aad []byte) ([]byte, error) {
	aead, err := k.aeadFor(dek)
	if err != nil {
		return nil, err
	}

	plaintext, err := open(aead, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypt record: %w", err)
	}
	return plaintext, nil
}

func (k *keyChainService) aeadFor(key *memguard.LockedBuffer) (cipher.AEAD, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return newAEAD(k.suite, key.Bytes())
}

func checkKey(key *memguard.LockedBuffer) error {
	if key == nil || !key.IsAlive() {
		return fmt.Errorf("%w: key buffer destroyed", ErrInvalidKey)
	}
	if key.Size() != KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKey, KeySize, key.Size())
	}
	return nil
}
