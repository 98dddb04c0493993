package vault

import (
	"errors"

	"github.com/MKhiriev/credvault/internal/audit"
)

// Error taxonomy of the vault. Every error returned by this package matches
// exactly one of these with errors.Is, possibly alongside a wrapped cause.
var (
	// ErrAlreadyInitialized is returned by Initialize when the directory
	// already holds a vault.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrVaultNotFound is returned when the directory holds no vault.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrWrongPassword is returned when the wrapped DEK does not
	// authenticate under the derived root key. It carries no detail.
	ErrWrongPassword = errors.New("wrong password")

	// ErrCorruptVault is returned when vault.dat fails structural checks.
	// It is fatal for the vault; no repair is attempted.
	ErrCorruptVault = errors.New("vault file is corrupt")

	// ErrCorruptRecord is returned when a record's ciphertext or metadata
	// fails authentication.
	ErrCorruptRecord = errors.New("credential record is corrupt")

	// ErrDuplicateName is returned when storing a name that already exists.
	ErrDuplicateName = errors.New("credential name already exists")

	// ErrNotFound is returned for any name that is not stored. The reason is
	// never distinguished.
	ErrNotFound = errors.New("credential not found")

	// ErrVaultBusy is returned when the vault lock could not be acquired in
	// time. The caller may retry.
	ErrVaultBusy = errors.New("vault is busy")

	// ErrSessionClosed is returned by every session method after Close or
	// after the idle timeout elapsed.
	ErrSessionClosed = errors.New("vault session is closed")

	// ErrTamperedLog is returned when the audit chain does not verify. It is
	// fatal for the vault. It is the audit package's sentinel, so an
	// *audit.TamperError passes through with its sequence number.
	ErrTamperedLog = audit.ErrTamperedLog

	// ErrIO wraps filesystem failures. Transient ones may be retried.
	ErrIO = errors.New("vault i/o error")

	// ErrTooManyAttempts is returned by Unlock while the failed-attempt
	// lockout is active. The KDF is not run.
	ErrTooManyAttempts = errors.New("too many failed unlock attempts")

	// ErrCredentialExpired is returned by GetCredential for a credential
	// whose expiry has passed.
	ErrCredentialExpired = errors.New("credential has expired")

	// ErrInvalidMetadata is returned when caller-supplied metadata fails
	// validation.
	ErrInvalidMetadata = errors.New("invalid credential metadata")

	// ErrEmptyPassphrase is returned when a passphrase argument is empty.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")

	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("invalid vault options")
)
