package crypto

import "errors"

var (
	// ErrAuthenticationFailed is returned when an AEAD tag does not verify:
	// wrong key, wrong associated data or modified ciphertext.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKey is returned for keys of the wrong length or destroyed
	// key buffers.
	ErrInvalidKey = errors.New("invalid key")

	// ErrEmptyPassphrase is returned by key derivation for an empty
	// passphrase.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")

	// ErrInvalidSalt is returned when the salt is not SaltSize bytes.
	ErrInvalidSalt = errors.New("invalid salt")

	// ErrMalformedCiphertext is returned when a nonce or ciphertext cannot
	// possibly be valid for the cipher suite (wrong nonce size, shorter than
	// the tag).
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)
