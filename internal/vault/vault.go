// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package vault is the caller-facing API of credvault: it creates vaults,
// unlocks them into sessions and performs every credential operation.
//
// Each operation runs under the vault's file lock and is mirrored into the
// audit log. A mutation is only reported as successful after its audit
// entry is durably written; the new vault file is renamed into place after
// that.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/store"
	"github.com/MKhiriev/credvault/models"
)

// Initialize creates a new vault in dir, protected by passphrase. The
// directory is created with mode 0700 if needed. It fails with
// ErrAlreadyInitialized if dir already holds a vault.
//
// The caller owns passphrase and should wipe it afterwards.
func Initialize(ctx context.Context, dir string, passphrase []byte, opts Options) error {
	if len(passphrase) == 0 {
		return ErrEmptyPassphrase
	}
	env, err := newEnvironment(dir, opts)
	if err != nil {
		return err
	}
	keys, err := env.opts.NewKeyChain(env.opts.Cipher)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	err = env.store.Update(ctx, func(tx *store.Tx) error {
		if tx.Exists() {
			return env.fail(ctx, models.OpInit, "", ErrAlreadyInitialized)
		}

		header, err := newHeader(keys, passphrase, env.opts.KDF)
		if err != nil {
			return env.fail(ctx, models.OpInit, "", mapError(err))
		}
		if err := tx.Create(header); err != nil {
			return env.fail(ctx, models.OpInit, "", mapError(err))
		}
		return env.commit(ctx, tx, models.OpInit, "")
	})
	if err != nil {
		env.logger.Err(err).
			Str("func", "vault.Initialize").
			Msg("failed to initialize vault")
		return mapError(err)
	}

	env.logger.Info().
		Str("cipher", keys.Suite().String()).
		Msg("vault initialized")
	return nil
}

func newHeader(keys crypto.KeyChainService, passphrase []byte, params models.KDFParams) (models.VaultHeader, error) {
	salt, err := keys.GenerateSalt()
	if err != nil {
		return models.VaultHeader{}, err
	}

	dek, err := keys.GenerateDEK()
	if err != nil {
		return models.VaultHeader{}, err
	}
	defer dek.Destroy()

	rootKey, err := keys.DeriveRootKey(passphrase, salt, params)
	if err != nil {
		return models.VaultHeader{}, err
	}
	defer rootKey.Destroy()

	vaultID := uuid.New()
	wrapped, err := keys.WrapDEK(dek, rootKey, dekAAD(vaultID, models.FormatVersion))
	if err != nil {
		return models.VaultHeader{}, err
	}

	return models.VaultHeader{
		FormatVersion: models.FormatVersion,
		Salt:          salt,
		KDF:           params,
		Cipher:        keys.Suite(),
		VaultID:       vaultID,
		WrappedDEK:    wrapped,
	}, nil
}

// openDEK derives the root key from passphrase with the header's own KDF
// parameters and unwraps the DEK with it. The root key never outlives this
// call.
func openDEK(keys crypto.KeyChainService, header models.VaultHeader, passphrase []byte) (*memguard.LockedBuffer, error) {
	rootKey, err := keys.DeriveRootKey(passphrase, header.Salt, header.KDF)
	if err != nil {
		return nil, err
	}
	defer rootKey.Destroy()

	return keys.UnwrapDEK(header.WrappedDEK, rootKey, dekAAD(header.VaultID, header.FormatVersion))
}

// Unlock opens the vault in dir and returns a session holding its DEK.
//
// A wrong passphrase yields ErrWrongPassword and a damaged header
// ErrCorruptVault; both are recorded in the audit log as UNLOCK_FAILURE.
// While the failed-attempt lockout is active Unlock returns
// ErrTooManyAttempts without running the KDF.
func Unlock(ctx context.Context, dir string, passphrase []byte, opts Options) (*Session, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	env, err := newEnvironment(dir, opts)
	if err != nil {
		return nil, err
	}

	exists, err := env.store.Exists()
	if err != nil {
		return nil, mapError(err)
	}
	if !exists {
		return nil, ErrVaultNotFound
	}

	s := newSession(env)
	if err := s.unlock(ctx, passphrase); err != nil {
		return nil, err
	}
	return s, nil
}

// WithSession unlocks the vault, runs fn and always closes the session,
// including when fn fails or panics.
func WithSession(ctx context.Context, dir string, passphrase []byte, opts Options, fn func(s *Session) error) error {
	s, err := Unlock(ctx, dir, passphrase, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

// VerifyAuditLog checks the hash chain of the audit log in dir. It needs no
// passphrase. Tampering is reported as an *audit.TamperError carrying the
// first bad sequence number; it matches ErrTamperedLog with errors.Is.
func VerifyAuditLog(ctx context.Context, dir string, opts Options) error {
	env, err := newExistingEnvironment(dir, opts)
	if err != nil {
		return err
	}
	return env.verifyAudit(ctx)
}

// ReadAuditLog returns the audit entries with from <= seq <= to. A zero to
// reads through the end of the log.
func ReadAuditLog(ctx context.Context, dir string, from, to uint64, opts Options) ([]models.AuditEntry, error) {
	env, err := newExistingEnvironment(dir, opts)
	if err != nil {
		return nil, err
	}
	return env.readAudit(ctx, from, to)
}

func newExistingEnvironment(dir string, opts Options) (*environment, error) {
	env, err := newEnvironment(dir, opts)
	if err != nil {
		return nil, err
	}
	exists, err := env.store.Exists()
	if err != nil {
		return nil, mapError(err)
	}
	if !exists {
		return nil, ErrVaultNotFound
	}
	return env, nil
}

func (e *environment) verifyAudit(ctx context.Context) error {
	err := e.store.View(ctx, func(*store.Tx) error {
		return e.audit.Verify(ctx)
	})
	return mapError(err)
}

func (e *environment) readAudit(ctx context.Context, from, to uint64) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := e.store.View(ctx, func(*store.Tx) error {
		var err error
		entries, err = e.audit.ReadRange(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// record appends one audit entry. It must be called with the vault lock
// held so that sequence numbers stay gapless across processes.
func (e *environment) record(ctx context.Context, op models.Operation, name string, outcome models.Outcome) error {
	entry, err := e.audit.Append(ctx, models.AuditEntry{
		Timestamp:  e.opts.now(),
		Operation:  op,
		Credential: name,
		Outcome:    outcome,
	})
	if err != nil {
		e.logger.Err(err).
			Str("func", "environment.record").
			Str("operation", string(op)).
			Str("credential", name).
			Msg("failed to append audit entry")
		return mapError(fmt.Errorf("append audit entry: %w", err))
	}

	e.logger.Debug().
		Uint64("seq", entry.Seq).
		Str("operation", string(op)).
		Str("credential", name).
		Str("outcome", string(outcome)).
		Msg("operation recorded")
	return nil
}

// fail records a FAILURE entry for op and returns cause. The entry is
// written even if ctx has been cancelled. If the audit write itself fails,
// both errors are returned.
func (e *environment) fail(ctx context.Context, op models.Operation, name string, cause error) error {
	if err := e.record(context.WithoutCancel(ctx), op, name, models.OutcomeFailure); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// auditHookError marks an audit failure inside Tx.Commit. Nothing was
// persisted in that case, so no further entry can or should be written.
type auditHookError struct{ err error }

func (e *auditHookError) Error() string { return e.err.Error() }
func (e *auditHookError) Unwrap() error { return e.err }

// commit persists the pending changes of tx with the SUCCESS entry for op
// written between staging and rename. If the vault file cannot be written
// a FAILURE entry follows.
func (e *environment) commit(ctx context.Context, tx *store.Tx, op models.Operation, name string) error {
	err := tx.Commit(func() error {
		if err := e.record(ctx, op, name, models.OutcomeSuccess); err != nil {
			return &auditHookError{err: err}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var hookErr *auditHookError
	if errors.As(err, &hookErr) {
		return hookErr.err
	}
	return e.fail(ctx, op, name, mapError(err))
}

// checkLockout refuses an unlock attempt while too many consecutive
// failures are recent. Failures are counted from the audit log, so the
// lockout holds across processes without extra state.
func (e *environment) checkLockout(ctx context.Context) error {
	if e.opts.MaxFailedAttempts < 0 {
		return nil
	}

	entries, err := e.audit.Tail(ctx, lockoutScanWindow)
	if err != nil {
		return mapError(err)
	}

	failures, last := consecutiveUnlockFailures(entries)
	if failures < e.opts.MaxFailedAttempts || e.opts.now().Sub(last) >= e.opts.LockoutCooldown {
		return nil
	}

	e.logger.Warn().
		Int("failures", failures).
		Time("last_failure", last).
		Msg("unlock refused by failed-attempt lockout")
	return e.fail(ctx, models.OpUnlockFailure, "", ErrTooManyAttempts)
}

// consecutiveUnlockFailures counts UNLOCK_FAILURE entries from the newest
// entry backwards until a successful unlock, init or rotation. Unrelated
// operations in between do not reset the count.
func consecutiveUnlockFailures(entries []models.AuditEntry) (int, time.Time) {
	var (
		count int
		last  time.Time
	)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		switch {
		case e.Operation == models.OpUnlockFailure:
			if count == 0 {
				last = e.Timestamp
			}
			count++
		case e.Operation == models.OpUnlockSuccess,
			e.Operation == models.OpInit && e.Outcome == models.OutcomeSuccess,
			e.Operation == models.OpRotate && e.Outcome == models.OutcomeSuccess:
			return count, last
		}
	}
	return count, last
}
