package store

import "errors"

// Sentinel errors returned by the vault store to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrVaultNotFound is returned when the vault directory holds no
	// vault.dat.
	ErrVaultNotFound = errors.New("vault not found")

	// ErrAlreadyExists is returned by Tx.Create when vault.dat is already
	// present.
	ErrAlreadyExists = errors.New("vault already exists")

	// ErrCorrupt is returned when vault.dat fails a structural check:
	// unsupported version, truncation, trailing bytes, unknown enum values
	// or duplicate record names.
	ErrCorrupt = errors.New("vault file is corrupt")

	// ErrRecordNotFound is returned when no record has the requested name.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateName is returned by Tx.Put when a record with the same
	// name is already stored.
	ErrDuplicateName = errors.New("duplicate record name")

	// ErrInvalidRecord is returned by Tx.Put for records whose metadata
	// cannot be persisted.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrLockTimeout is returned when the vault lock could not be acquired
	// within the configured wait.
	ErrLockTimeout = errors.New("timed out waiting for vault lock")

	// ErrReadOnly is returned when a mutating method is called inside View.
	ErrReadOnly = errors.New("transaction is read-only")
)

// Write-path errors. They are returned (or wrapped) when the filesystem
// refuses an operation after the in-memory state was already prepared.
var (
	// ErrStagingFailed is returned when the new vault file could not be
	// written and synced to its temporary location. vault.dat is untouched.
	ErrStagingFailed = errors.New("failed to stage vault file")

	// ErrCommitFailed is returned when the staged file could not be renamed
	// over vault.dat. The commit hook has already run at this point.
	ErrCommitFailed = errors.New("failed to commit vault file")
)
