package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/store"
	"github.com/MKhiriev/credvault/models"
)

var publicErrors = []error{
	ErrAlreadyInitialized, ErrVaultNotFound, ErrWrongPassword, ErrCorruptVault,
	ErrCorruptRecord, ErrDuplicateName, ErrNotFound, ErrVaultBusy,
	ErrSessionClosed, ErrTamperedLog, ErrIO, ErrTooManyAttempts,
	ErrCredentialExpired, ErrInvalidMetadata, ErrEmptyPassphrase, ErrInvalidOptions,
}

func isPublic(err error) bool {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// mapError converts store and audit errors into the public taxonomy.
// NotFound and WrongPassword are returned bare so that their message never
// reveals why a lookup failed.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isPublic(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrLockTimeout):
		return fmt.Errorf("%w: %w", ErrVaultBusy, err)
	case errors.Is(err, store.ErrVaultNotFound):
		return ErrVaultNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrAlreadyInitialized
	case errors.Is(err, store.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorruptVault, err)
	case errors.Is(err, store.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicateName):
		return ErrDuplicateName
	case errors.Is(err, store.ErrInvalidRecord):
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}

// mapUnwrapError classifies a failure to open the wrapped DEK. A tag
// mismatch is the wrong-password signal; anything structurally impossible
// means the header is damaged.
func mapUnwrapError(err error) error {
	switch {
	case errors.Is(err, crypto.ErrAuthenticationFailed):
		return ErrWrongPassword
	case errors.Is(err, crypto.ErrMalformedCiphertext),
		errors.Is(err, crypto.ErrInvalidSalt),
		errors.Is(err, crypto.ErrInvalidKey),
		errors.Is(err, models.ErrInvalidKDFParams),
		errors.Is(err, models.ErrUnsupportedCipher):
		return fmt.Errorf("%w: %w", ErrCorruptVault, err)
	default:
		return mapError(err)
	}
}

// mapDecryptError classifies a failure to open a credential record.
func mapDecryptError(err error) error {
	switch {
	case errors.Is(err, crypto.ErrAuthenticationFailed),
		errors.Is(err, crypto.ErrMalformedCiphertext):
		return ErrCorruptRecord
	default:
		return mapError(err)
	}
}
