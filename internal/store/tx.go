package store

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

// Tx is the in-memory view of vault.dat held while the vault lock is taken.
// It is only valid inside the View or Update callback that received it.
type Tx struct {
	dir      string
	writable bool
	logger   *logger.Logger

	exists  bool
	loadErr error
	header  models.VaultHeader
	records []models.EncryptedRecord
	index   map[string]int
	dirty   bool
	done    bool
}

func (tx *Tx) load() {
	tx.index = make(map[string]int)

	data, err := os.ReadFile(VaultPath(tx.dir))
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	tx.exists = true
	if err != nil {
		tx.loadErr = fmt.Errorf("read vault: %w", err)
		return
	}

	header, records, err := decodeVault(data)
	if err != nil {
		tx.logger.Err(err).
			Str("func", "Tx.load").
			Str("vault_dir", tx.dir).
			Msg("vault file failed structural checks")
		tx.loadErr = err
		return
	}

	tx.header = header
	tx.records = records
	tx.reindex()
}

func (tx *Tx) reindex() {
	tx.index = make(map[string]int, len(tx.records))
	for i, rec := range tx.records {
		tx.index[rec.Metadata.Name] = i
	}
}

func (tx *Tx) discard() {
	tx.done = true
	tx.records = nil
	tx.index = nil
}

func (tx *Tx) checkWritable() error {
	if tx.done {
		return errors.New("transaction already closed")
	}
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

func (tx *Tx) checkExists() error {
	if !tx.exists {
		return ErrVaultNotFound
	}
	return tx.loadErr
}

// Err returns the error hit while reading vault.dat, if any. Every accessor
// returns the same error.
func (tx *Tx) Err() error {
	return tx.loadErr
}

// Exists reports whether vault.dat was present when the lock was taken (or
// has been created by this Tx). A present but unreadable file counts as
// existing.
func (tx *Tx) Exists() bool {
	return tx.exists
}

// Header returns the vault header.
func (tx *Tx) Header() (models.VaultHeader, error) {
	if err := tx.checkExists(); err != nil {
		return models.VaultHeader{}, err
	}
	return tx.header, nil
}

// Get returns the record stored under name.
func (tx *Tx) Get(name string) (models.EncryptedRecord, error) {
	if err := tx.checkExists(); err != nil {
		return models.EncryptedRecord{}, err
	}
	i, ok := tx.index[name]
	if !ok {
		return models.EncryptedRecord{}, ErrRecordNotFound
	}
	return tx.records[i], nil
}

// List returns the metadata of every record in storage order. Secrets are
// never decrypted for listing.
func (tx *Tx) List() ([]models.CredentialMetadata, error) {
	if err := tx.checkExists(); err != nil {
		return nil, err
	}
	out := make([]models.CredentialMetadata, 0, len(tx.records))
	for _, rec := range tx.records {
		m := rec.Metadata
		m.Tags = slices.Clone(m.Tags)
		out = append(out, m)
	}
	return out, nil
}

// Create installs the header of a new, empty vault. It fails with
// ErrAlreadyExists when vault.dat is already present.
func (tx *Tx) Create(header models.VaultHeader) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if tx.exists {
		return ErrAlreadyExists
	}
	tx.exists = true
	tx.header = header
	tx.records = nil
	tx.reindex()
	tx.dirty = true
	return nil
}

// SetHeader replaces the header, leaving every record untouched. It is used
// by master password rotation.
func (tx *Tx) SetHeader(header models.VaultHeader) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.checkExists(); err != nil {
		return err
	}
	tx.header = header
	tx.dirty = true
	return nil
}

// Put adds a record. Names are unique within a vault.
func (tx *Tx) Put(rec models.EncryptedRecord) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.checkExists(); err != nil {
		return err
	}
	if err := rec.Metadata.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if len(rec.Nonce) == 0 || len(rec.Ciphertext) == 0 {
		return fmt.Errorf("%w: missing ciphertext", ErrInvalidRecord)
	}
	if _, ok := tx.index[rec.Metadata.Name]; ok {
		return ErrDuplicateName
	}

	tx.records = append(tx.records, rec)
	tx.index[rec.Metadata.Name] = len(tx.records) - 1
	tx.dirty = true
	return nil
}

// Delete removes the record stored under name.
func (tx *Tx) Delete(name string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.checkExists(); err != nil {
		return err
	}
	i, ok := tx.index[name]
	if !ok {
		return ErrRecordNotFound
	}

	tx.records = slices.Delete(tx.records, i, i+1)
	tx.reindex()
	tx.dirty = true
	return nil
}

// Touch records a successful read of name at the given time: it sets the
// last access timestamp and increments the access counter.
func (tx *Tx) Touch(name string, at time.Time) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if err := tx.checkExists(); err != nil {
		return err
	}
	i, ok := tx.index[name]
	if !ok {
		return ErrRecordNotFound
	}

	tx.records[i].Metadata.LastAccessedAt = at.UTC()
	tx.records[i].Metadata.AccessCount++
	tx.dirty = true
	return nil
}

// Commit persists the pending changes. The new vault.dat is written and
// synced to a temporary file first, then hook runs, then the temporary file
// is renamed over vault.dat. If hook fails the temporary file is removed,
// vault.dat is left untouched and hook's error is returned as is. A failed
// rename is reported as ErrCommitFailed; hook has already run by then.
//
// A nil hook is allowed. Commit without pending changes only runs hook.
func (tx *Tx) Commit(hook func() error) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if !tx.dirty {
		if hook != nil {
			return hook()
		}
		return nil
	}

	data, err := encodeVault(tx.header, tx.records)
	if err != nil {
		return err
	}

	staged, err := stageFile(VaultPath(tx.dir), data)
	if err != nil {
		tx.logger.Err(err).
			Str("func", "Tx.Commit").
			Str("vault_dir", tx.dir).
			Msg("failed to stage vault file")
		return err
	}

	if hook != nil {
		if err := hook(); err != nil {
			staged.abort()
			return err
		}
	}

	if err := staged.commit(); err != nil {
		if !errors.Is(err, errDirSync) {
			tx.logger.Err(err).
				Str("func", "Tx.Commit").
				Str("vault_dir", tx.dir).
				Msg("failed to replace vault file")
			return err
		}
		tx.logger.Warn().Err(err).
			Str("func", "Tx.Commit").
			Str("vault_dir", tx.dir).
			Msg("vault file replaced but directory sync failed")
	}

	tx.dirty = false
	tx.logger.Debug().
		Str("func", "Tx.Commit").
		Str("vault_dir", tx.dir).
		Int("records", len(tx.records)).
		Msg("vault file committed")
	return nil
}
