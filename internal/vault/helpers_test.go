package vault

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

const testPassphrase = "correct-horse"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testOptions() Options {
	return Options{
		LockTimeout: 2 * time.Second,
		KDF:         crypto.MinimalKDFParams(),
		Logger:      logger.Nop(),
	}
}

func newVaultDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vault")
}

func initVault(t *testing.T, dir string, opts Options) {
	t.Helper()
	require.NoError(t, Initialize(context.Background(), dir, []byte(testPassphrase), opts))
}

func unlockVault(t *testing.T, dir string, opts Options) *Session {
	t.Helper()
	s, err := Unlock(context.Background(), dir, []byte(testPassphrase), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUnlockedVault(t *testing.T) (string, *Session) {
	t.Helper()
	dir := newVaultDir(t)
	initVault(t, dir, testOptions())
	return dir, unlockVault(t, dir, testOptions())
}

func token(name string) models.CredentialMetadata {
	return models.CredentialMetadata{
		Name:  name,
		Type:  models.CredentialTypeAPIToken,
		Scope: models.GlobalScope(),
	}
}

func auditEntries(t *testing.T, dir string) []models.AuditEntry {
	t.Helper()
	entries, err := ReadAuditLog(context.Background(), dir, 1, 0, testOptions())
	require.NoError(t, err)
	return entries
}

func lastEntry(t *testing.T, dir string) models.AuditEntry {
	t.Helper()
	entries := auditEntries(t, dir)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func operations(entries []models.AuditEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.Operation)+":"+string(e.Outcome))
	}
	return out
}

func names(list []models.CredentialMetadata) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.Name)
	}
	return out
}
