package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "vault"), 200*time.Millisecond, logger.Nop())
}

func createVault(t *testing.T, s Store, records ...models.EncryptedRecord) {
	t.Helper()
	err := s.Update(context.Background(), func(tx *Tx) error {
		if err := tx.Create(testHeader()); err != nil {
			return err
		}
		for _, rec := range records {
			if err := tx.Put(rec); err != nil {
				return err
			}
		}
		return tx.Commit(nil)
	})
	require.NoError(t, err)
}

func TestStore_CreateAndReadBack(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.Exists()
	require.NoError(t, err)
	assert.False(t, ok)

	createVault(t, s, testRecord("gh"), testRecord("jira"))

	ok, err = s.Exists()
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := os.Stat(VaultPath(s.Dir()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	err = s.View(context.Background(), func(tx *Tx) error {
		header, err := tx.Header()
		require.NoError(t, err)
		assert.Equal(t, testHeader(), header)

		list, err := tx.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "gh", list[0].Name)
		assert.Equal(t, "jira", list[1].Name)

		rec, err := tx.Get("jira")
		require.NoError(t, err)
		assert.Equal(t, testRecord("jira"), rec)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_CreateTwiceFails(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)

	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.Create(testHeader())
	})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStore_ViewMissingVault(t *testing.T) {
	s := newTestStore(t)

	err := s.View(context.Background(), func(tx *Tx) error {
		_, err := tx.Header()
		return err
	})
	require.ErrorIs(t, err, ErrVaultNotFound)
}

func TestTx_ViewIsReadOnly(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)

	err := s.View(context.Background(), func(tx *Tx) error {
		return tx.Put(testRecord("gh"))
	})
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestTx_Mutations(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s, testRecord("gh"))
	ctx := context.Background()
	touchedAt := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)

	err := s.Update(ctx, func(tx *Tx) error {
		require.ErrorIs(t, tx.Put(testRecord("gh")), ErrDuplicateName)
		require.ErrorIs(t, tx.Delete("missing"), ErrRecordNotFound)
		require.ErrorIs(t, tx.Touch("missing", touchedAt), ErrRecordNotFound)

		bad := testRecord("")
		require.ErrorIs(t, tx.Put(bad), ErrInvalidRecord)

		require.NoError(t, tx.Put(testRecord("aws")))
		require.NoError(t, tx.Touch("gh", touchedAt))
		return tx.Commit(nil)
	})
	require.NoError(t, err)

	err = s.Update(ctx, func(tx *Tx) error {
		rec, err := tx.Get("gh")
		require.NoError(t, err)
		assert.Equal(t, touchedAt, rec.Metadata.LastAccessedAt)
		assert.Equal(t, uint64(1), rec.Metadata.AccessCount)

		require.NoError(t, tx.Delete("gh"))
		_, err = tx.Get("gh")
		require.ErrorIs(t, err, ErrRecordNotFound)

		rec, err = tx.Get("aws")
		require.NoError(t, err)
		assert.Equal(t, "aws", rec.Metadata.Name)
		return tx.Commit(nil)
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx *Tx) error {
		list, err := tx.List()
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "aws", list[0].Name)
		return nil
	})
	require.NoError(t, err)
}

func TestTx_UncommittedChangesAreDiscarded(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)

	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.Put(testRecord("gh"))
	})
	require.NoError(t, err)

	err = s.View(context.Background(), func(tx *Tx) error {
		_, err := tx.Get("gh")
		return err
	})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestTx_CommitHookOrderingAndFailure(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)
	before, err := os.ReadFile(VaultPath(s.Dir()))
	require.NoError(t, err)

	hookErr := errors.New("audit disk full")
	err = s.Update(context.Background(), func(tx *Tx) error {
		require.NoError(t, tx.Put(testRecord("gh")))
		return tx.Commit(func() error {
			// The hook runs before the rename, so vault.dat is still old.
			current, err := os.ReadFile(VaultPath(s.Dir()))
			require.NoError(t, err)
			assert.Equal(t, before, current)
			return hookErr
		})
	})
	require.ErrorIs(t, err, hookErr)

	after, err := os.ReadFile(VaultPath(s.Dir()))
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed hook must leave vault.dat untouched")

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "staged file must be removed")
	}
}

func TestStore_CorruptFileFailsTransactions(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)
	require.NoError(t, os.WriteFile(VaultPath(s.Dir()), []byte("garbage"), 0o600))

	err := s.View(context.Background(), func(tx *Tx) error {
		assert.True(t, tx.Exists())
		require.ErrorIs(t, tx.Err(), ErrCorrupt)

		_, err := tx.List()
		return err
	})
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_LockTimeout(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)

	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Update(context.Background(), func(tx *Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	start := time.Now()
	err := s.View(context.Background(), func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	close(release)
	wg.Wait()

	require.NoError(t, s.View(context.Background(), func(tx *Tx) error { return nil }))
}

func TestStore_LockHonoursContext(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "vault"), time.Minute, logger.Nop())
	createVault(t, s)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Update(context.Background(), func(tx *Tx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Update(ctx, func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}

func TestStore_SharedLocksDoNotBlockEachOther(t *testing.T) {
	s := newTestStore(t)
	createVault(t, s)

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.View(context.Background(), func(tx *Tx) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	err := s.View(context.Background(), func(tx *Tx) error { return nil })
	require.NoError(t, err)

	close(release)
	<-done
}
