package vault

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/MKhiriev/credvault/internal/store"
	"github.com/MKhiriev/credvault/models"
)

// dekAAD binds the wrapped DEK to its vault and file format, so a header
// copied from another vault does not unwrap.
func dekAAD(vaultID uuid.UUID, formatVersion uint32) []byte {
	return []byte("credvault:dek:" + vaultID.String() + ":" + strconv.FormatUint(uint64(formatVersion), 10))
}

// recordAAD binds a record's ciphertext to its vault, its name and its
// immutable metadata. Swapping ciphertexts between records or editing the
// stored metadata makes decryption fail.
func recordAAD(vaultID uuid.UUID, m models.CredentialMetadata) ([]byte, error) {
	canonical, err := store.CanonicalMetadata(m)
	if err != nil {
		return nil, err
	}

	aad := []byte("credvault:record:" + vaultID.String() + ":" + m.Name)
	aad = append(aad, 0)
	return append(aad, canonical...), nil
}
