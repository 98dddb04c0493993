package store

import "path/filepath"

// File names inside a vault directory. Nothing but this package and the
// audit package may touch them.
const (
	VaultFileName = "vault.dat"
	AuditFileName = "audit.log"
	LockFileName  = "vault.lock"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// VaultPath returns the path of the vault file inside dir.
func VaultPath(dir string) string { return filepath.Join(dir, VaultFileName) }

// AuditPath returns the path of the audit log inside dir.
func AuditPath(dir string) string { return filepath.Join(dir, AuditFileName) }

// LockPath returns the path of the lock sidecar inside dir.
func LockPath(dir string) string { return filepath.Join(dir, LockFileName) }
