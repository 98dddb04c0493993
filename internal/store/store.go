// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/credvault/internal/logger"
)

// Store persists one vault directory. All access goes through scoped
// transactions: the lock is taken on entry and always released on exit,
// including when fn returns an error or panics.
type Store interface {
	// Dir returns the vault directory.
	Dir() string

	// Exists reports whether vault.dat is present. It takes no lock and is
	// only a hint; transactions re-check under the lock.
	Exists() (bool, error)

	// View runs fn under the shared lock against a snapshot of vault.dat.
	// Mutating methods of the Tx return ErrReadOnly. fn runs even when
	// vault.dat cannot be read; the Tx accessors then return that error,
	// so the caller can still record the failure while holding the lock.
	View(ctx context.Context, fn func(tx *Tx) error) error

	// Update runs fn under the exclusive lock. Changes made through the Tx
	// are only persisted by Tx.Commit; returning without committing
	// discards them.
	Update(ctx context.Context, fn func(tx *Tx) error) error
}

// fileStore is the default implementation of [Store].
type fileStore struct {
	dir         string
	lockTimeout time.Duration
	logger      *logger.Logger
}

// NewStore constructs a [Store] for dir. lockTimeout bounds how long View
// and Update wait for a contended lock before failing with ErrLockTimeout.
func NewStore(dir string, lockTimeout time.Duration, log *logger.Logger) Store {
	if log == nil {
		log = logger.Nop()
	}
	return &fileStore{
		dir:         dir,
		lockTimeout: lockTimeout,
		logger:      log,
	}
}

// Dir implements [Store].
func (s *fileStore) Dir() string {
	return s.dir
}

// Exists implements [Store].
func (s *fileStore) Exists() (bool, error) {
	_, err := os.Stat(VaultPath(s.dir))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat vault: %w", err)
	}
}

// View implements [Store].
func (s *fileStore) View(ctx context.Context, fn func(tx *Tx) error) error {
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		return ErrVaultNotFound
	}
	return s.withLock(ctx, false, fn)
}

// Update implements [Store]. The vault directory is created with mode 0700
// if it is missing.
func (s *fileStore) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	return s.withLock(ctx, true, fn)
}

func (s *fileStore) withLock(ctx context.Context, exclusive bool, fn func(tx *Tx) error) (err error) {
	lock, err := acquireLock(ctx, LockPath(s.dir), exclusive, s.lockTimeout)
	if err != nil {
		s.logger.Err(err).
			Str("func", "fileStore.withLock").
			Str("vault_dir", s.dir).
			Bool("exclusive", exclusive).
			Msg("failed to acquire vault lock")
		return err
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			s.logger.Warn().Err(releaseErr).
				Str("func", "fileStore.withLock").
				Str("vault_dir", s.dir).
				Msg("failed to release vault lock")
		}
	}()

	tx := &Tx{dir: s.dir, writable: exclusive, logger: s.logger}
	tx.load()
	defer tx.discard()

	return fn(tx)
}
