package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/credvault/models"
)

func testHeader() models.VaultHeader {
	return models.VaultHeader{
		FormatVersion: models.FormatVersion,
		Salt:          bytes.Repeat([]byte{0x01}, 16),
		KDF: models.KDFParams{
			Algorithm:   models.KDFArgon2id,
			MemoryKiB:   models.MinKDFMemoryKiB,
			Iterations:  1,
			Parallelism: 1,
			KeyLen:      models.RootKeyLength,
		},
		Cipher:  models.CipherAES256GCM,
		VaultID: uuid.MustParse("5b0f6c8e-8a4e-4c55-9c52-0f0e6d3c2a11"),
		WrappedDEK: models.WrappedKey{
			Nonce:      bytes.Repeat([]byte{0x02}, 12),
			Ciphertext: bytes.Repeat([]byte{0x03}, 48),
		},
	}
}

func testRecord(name string) models.EncryptedRecord {
	return models.EncryptedRecord{
		Metadata: models.CredentialMetadata{
			Name:        name,
			Type:        models.CredentialTypeAPIToken,
			Description: "token for " + name,
			Scope:       models.GlobalScope(),
			Tags:        []string{"ci", "prod"},
			CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC),
		},
		Nonce:      bytes.Repeat([]byte{0x04}, 12),
		Ciphertext: []byte("ciphertext-with-tag-" + name),
	}
}

func mustEncode(t *testing.T, header models.VaultHeader, records ...models.EncryptedRecord) []byte {
	t.Helper()
	data, err := encodeVault(header, records)
	if err != nil {
		t.Fatalf("encodeVault error: %v", err)
	}
	return data
}
