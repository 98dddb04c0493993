package vault

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/store"
	"github.com/MKhiriev/credvault/models"
)

// State is the lifecycle stage of a [Session].
type State int

const (
	StateLocked State = iota
	StateUnlocking
	StateUnlocked
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocking:
		return "unlocking"
	case StateUnlocked:
		return "unlocked"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is an unlocked vault. It holds the DEK in locked memory until
// Close, which wipes it. A Session is safe for concurrent use, but its
// operations are serialised; open one session per goroutine for parallel
// work.
type Session struct {
	env *environment

	mu       sync.Mutex
	state    State
	keys     crypto.KeyChainService
	dek      *memguard.LockedBuffer
	vaultID  uuid.UUID
	lastUsed time.Time
}

func newSession(env *environment) *Session {
	return &Session{env: env, state: StateLocked}
}

func (s *Session) unlock(ctx context.Context, passphrase []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateUnlocking
	err := s.env.store.Update(ctx, func(tx *store.Tx) error {
		if !tx.Exists() {
			return ErrVaultNotFound
		}
		if err := s.env.checkLockout(ctx); err != nil {
			return err
		}

		header, err := tx.Header()
		if err != nil {
			return s.env.fail(ctx, models.OpUnlockFailure, "", mapError(err))
		}
		keys, err := s.env.opts.NewKeyChain(header.Cipher)
		if err != nil {
			return s.env.fail(ctx, models.OpUnlockFailure, "", mapUnwrapError(err))
		}

		dek, err := openDEK(keys, header, passphrase)
		if err != nil {
			return s.env.fail(ctx, models.OpUnlockFailure, "", mapUnwrapError(err))
		}
		if err := s.env.record(ctx, models.OpUnlockSuccess, "", models.OutcomeSuccess); err != nil {
			dek.Destroy()
			return err
		}

		s.keys, s.dek, s.vaultID = keys, dek, header.VaultID
		return nil
	})
	if err != nil {
		s.state = StateLocked
		s.env.logger.Warn().Err(err).
			Str("func", "Session.unlock").
			Msg("unlock failed")
		return mapError(err)
	}

	s.state = StateUnlocked
	s.lastUsed = s.env.opts.now()
	s.env.logger.Info().
		Str("vault_id", s.vaultID.String()).
		Msg("vault unlocked")
	return nil
}

// checkOpen must be called with s.mu held. It enforces the idle timeout
// and marks the session as used.
func (s *Session) checkOpen() error {
	if s.state != StateUnlocked {
		return ErrSessionClosed
	}
	if err := s.expireIfIdle(); err != nil {
		return err
	}
	s.lastUsed = s.env.opts.now()
	return nil
}

// expireIfIdle closes the session when it has been idle for longer than
// the configured timeout. There is no timer; the check runs on each call.
func (s *Session) expireIfIdle() error {
	idle := s.env.opts.IdleTimeout
	if idle <= 0 || s.env.opts.now().Sub(s.lastUsed) <= idle {
		return nil
	}

	s.wipe()
	s.env.logger.Info().
		Dur("idle_timeout", idle).
		Msg("session closed after idle timeout")
	return fmt.Errorf("%w: idle for more than %s", ErrSessionClosed, idle)
}

// checkVault makes sure the file under the lock is still the vault this
// session was unlocked for.
func (s *Session) checkVault(tx *store.Tx) (models.VaultHeader, error) {
	header, err := tx.Header()
	if err != nil {
		return models.VaultHeader{}, mapError(err)
	}
	if header.VaultID != s.vaultID {
		return models.VaultHeader{}, fmt.Errorf("%w: vault was replaced since unlock", ErrCorruptVault)
	}
	return header, nil
}

// State reports the lifecycle stage. An idle-expired session reports
// StateClosed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnlocked {
		_ = s.expireIfIdle()
	}
	return s.state
}

// Dir returns the vault directory.
func (s *Session) Dir() string {
	return s.env.dir
}

// StoreCredential encrypts secret under the session DEK and stores it with
// meta. CreatedAt is set by the vault; access counters start at zero. The
// caller keeps ownership of secret.
func (s *Session) StoreCredential(ctx context.Context, meta models.CredentialMetadata, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	meta.CreatedAt = s.env.opts.now()
	meta.LastAccessedAt = time.Time{}
	meta.AccessCount = 0
	meta.Tags = slices.Clone(meta.Tags)
	if !meta.ExpiresAt.IsZero() {
		meta.ExpiresAt = meta.ExpiresAt.UTC()
	}

	err := s.env.store.Update(ctx, func(tx *store.Tx) error {
		fail := func(cause error) error {
			return s.env.fail(ctx, models.OpStore, meta.Name, cause)
		}

		if _, err := s.checkVault(tx); err != nil {
			return fail(err)
		}
		if err := meta.Validate(); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrInvalidMetadata, err))
		}
		if _, err := tx.Get(meta.Name); err == nil {
			return fail(ErrDuplicateName)
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return fail(mapError(err))
		}

		aad, err := recordAAD(s.vaultID, meta)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrInvalidMetadata, err))
		}
		nonce, ciphertext, err := s.keys.EncryptRecord(secret, s.dek, aad)
		if err != nil {
			return fail(mapError(err))
		}
		if err := tx.Put(models.EncryptedRecord{Metadata: meta, Nonce: nonce, Ciphertext: ciphertext}); err != nil {
			return fail(mapError(err))
		}
		return s.env.commit(ctx, tx, models.OpStore, meta.Name)
	})
	if err != nil {
		return mapError(err)
	}

	s.env.logger.Info().
		Str("credential", meta.Name).
		Str("type", meta.Type.String()).
		Str("scope", meta.Scope.String()).
		Msg("credential stored")
	return nil
}

// GetCredential decrypts and returns the secret stored under name, and
// records the access. The caller owns the returned slice and should wipe it
// with memguard.WipeBytes once done.
//
// Every call that reaches the vault is audited, including lookups of names
// that do not exist. Calls rejected before the vault lock is held are not:
// ErrSessionClosed (closed or idle-expired session) and ErrVaultBusy.
func (s *Session) GetCredential(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var secret []byte
	err := s.env.store.Update(ctx, func(tx *store.Tx) error {
		fail := func(cause error) error {
			return s.env.fail(ctx, models.OpGet, name, cause)
		}

		if _, err := s.checkVault(tx); err != nil {
			return fail(err)
		}
		rec, err := tx.Get(name)
		if err != nil {
			return fail(mapError(err))
		}

		now := s.env.opts.now()
		if rec.Metadata.IsExpired(now) {
			return fail(ErrCredentialExpired)
		}

		aad, err := recordAAD(s.vaultID, rec.Metadata)
		if err != nil {
			return fail(ErrCorruptRecord)
		}
		plaintext, err := s.keys.DecryptRecord(rec.Nonce, rec.Ciphertext, s.dek, aad)
		if err != nil {
			return fail(mapDecryptError(err))
		}

		if err := tx.Touch(name, now); err != nil {
			memguard.WipeBytes(plaintext)
			return fail(mapError(err))
		}
		if err := s.env.commit(ctx, tx, models.OpGet, name); err != nil {
			memguard.WipeBytes(plaintext)
			return err
		}

		secret = plaintext
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return secret, nil
}

// ListCredentials returns the metadata of every credential matching
// filter, in storage order. No secret is decrypted and nothing is audited.
func (s *Session) ListCredentials(ctx context.Context, filter models.CredentialFilter) ([]models.CredentialMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var out []models.CredentialMetadata
	err := s.env.store.View(ctx, func(tx *store.Tx) error {
		if _, err := s.checkVault(tx); err != nil {
			return err
		}
		all, err := tx.List()
		if err != nil {
			return err
		}
		out = slices.DeleteFunc(all, func(m models.CredentialMetadata) bool {
			return !filter.Match(m)
		})
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// DeleteCredential removes the credential stored under name. The audit log
// keeps the record of the deletion.
func (s *Session) DeleteCredential(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	err := s.env.store.Update(ctx, func(tx *store.Tx) error {
		fail := func(cause error) error {
			return s.env.fail(ctx, models.OpDelete, name, cause)
		}

		if _, err := s.checkVault(tx); err != nil {
			return fail(err)
		}
		if err := tx.Delete(name); err != nil {
			return fail(mapError(err))
		}
		return s.env.commit(ctx, tx, models.OpDelete, name)
	})
	if err != nil {
		return mapError(err)
	}

	s.env.logger.Info().
		Str("credential", name).
		Msg("credential deleted")
	return nil
}

// RotateMasterPassword re-wraps the existing DEK under a root key derived
// from newPassphrase with a fresh salt and the configured KDF parameters.
// oldPassphrase must unlock the vault. Record ciphertexts are not touched.
func (s *Session) RotateMasterPassword(ctx context.Context, oldPassphrase, newPassphrase []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	err := s.env.store.Update(ctx, func(tx *store.Tx) error {
		fail := func(cause error) error {
			return s.env.fail(ctx, models.OpRotate, "", cause)
		}

		header, err := s.checkVault(tx)
		if err != nil {
			return fail(err)
		}
		if len(oldPassphrase) == 0 || len(newPassphrase) == 0 {
			return fail(ErrEmptyPassphrase)
		}

		current, err := openDEK(s.keys, header, oldPassphrase)
		if err != nil {
			return fail(mapUnwrapError(err))
		}
		same := subtle.ConstantTimeCompare(current.Bytes(), s.dek.Bytes()) == 1
		current.Destroy()
		if !same {
			return fail(fmt.Errorf("%w: stored key differs from session key", ErrCorruptVault))
		}

		rotated, err := rewrap(s.keys, s.dek, header, newPassphrase, s.env.opts.KDF)
		if err != nil {
			return fail(mapError(err))
		}
		if err := tx.SetHeader(rotated); err != nil {
			return fail(mapError(err))
		}
		return s.env.commit(ctx, tx, models.OpRotate, "")
	})
	if err != nil {
		return mapError(err)
	}

	s.env.logger.Info().Msg("master password rotated")
	return nil
}

func rewrap(keys crypto.KeyChainService, dek *memguard.LockedBuffer, header models.VaultHeader, passphrase []byte, params models.KDFParams) (models.VaultHeader, error) {
	salt, err := keys.GenerateSalt()
	if err != nil {
		return models.VaultHeader{}, err
	}

	rootKey, err := keys.DeriveRootKey(passphrase, salt, params)
	if err != nil {
		return models.VaultHeader{}, err
	}
	defer rootKey.Destroy()

	wrapped, err := keys.WrapDEK(dek, rootKey, dekAAD(header.VaultID, header.FormatVersion))
	if err != nil {
		return models.VaultHeader{}, err
	}

	header.Salt = salt
	header.KDF = params
	header.WrappedDEK = wrapped
	return header, nil
}

// VerifyAudit checks the audit log hash chain of this vault.
func (s *Session) VerifyAudit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.env.verifyAudit(ctx)
}

// AuditLog returns the audit entries with from <= seq <= to. A zero to
// reads through the end of the log.
func (s *Session) AuditLog(ctx context.Context, from, to uint64) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.env.readAudit(ctx, from, to)
}

// Close wipes the DEK and ends the session. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.wipe()
	s.env.logger.Debug().Msg("session closed")
	return nil
}

func (s *Session) wipe() {
	if s.dek != nil {
		s.dek.Destroy()
		s.dek = nil
	}
	s.keys = nil
	s.state = StateClosed
}
