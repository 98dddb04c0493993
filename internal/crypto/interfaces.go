package crypto

import (
	"github.com/awnumar/memguard"

	"github.com/MKhiriev/credvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/keychain_service_mock.go -package=mock

// KeyChainService owns every cryptographic primitive of a vault. It knows
// nothing about files, locks or audit history; its only job is to derive,
// generate and protect keys and to seal credential secrets with them.
//
// Envelope scheme:
//
//	Salt     = GenerateSalt()                        (once per vault, fresh on rotation)
//	DEK      = GenerateDEK()                         (once per vault, never changes)
//	RootKey  = DeriveRootKey(passphrase, Salt, KDF)  (every unlock)
//	Wrapped  = WrapDEK(DEK, RootKey, aad)            (init and rotation)
//	Record   = EncryptRecord(secret, DEK, aad)       (every store)
//
// Keys are handed around as memguard buffers. Whoever receives a buffer from
// this interface owns it and must Destroy it.
type KeyChainService interface {
	// Suite reports the AEAD this service seals with.
	Suite() models.CipherSuite

	// GenerateSalt returns SaltSize bytes from the OS CSPRNG.
	// The salt is not secret; it is stored in the vault header in the clear.
	GenerateSalt() ([]byte, error)

	// GenerateDEK returns a fresh random 256-bit data-encryption key.
	GenerateDEK() (*memguard.LockedBuffer, error)

	// DeriveRootKey stretches passphrase with Argon2id. The result is
	// deterministic for a given (passphrase, salt, params) triple. Whether
	// it is the right key is only observable through UnwrapDEK.
	DeriveRootKey(passphrase, salt []byte, params models.KDFParams) (*memguard.LockedBuffer, error)

	// WrapDEK seals dek under rootKey. The nonce is drawn internally.
	WrapDEK(dek, rootKey *memguard.LockedBuffer, aad []byte) (models.WrappedKey, error)

	// UnwrapDEK opens a wrapped DEK. Any wrong key, wrong aad or flipped bit
	// yields ErrAuthenticationFailed; it never returns a different key.
	UnwrapDEK(wrapped models.WrappedKey, rootKey *memguard.LockedBuffer, aad []byte) (*memguard.LockedBuffer, error)

	// EncryptRecord seals one credential secret under dek with a fresh
	// random nonce.
	EncryptRecord(plaintext []byte, dek *memguard.LockedBuffer, aad []byte) (nonce, ciphertext []byte, err error)

	// DecryptRecord reverses EncryptRecord. The caller must wipe the
	// returned plaintext once it is done with it.
	DecryptRecord(nonce, ciphertext []byte, dek *memguard.LockedBuffer, aad []byte) ([]byte, error)
}
