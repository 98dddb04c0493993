package store

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/credvault/models"
)

func TestEncodeDecodeVault_PreservesEverything(t *testing.T) {
	header := testHeader()
	project := testRecord("jira")
	project.Metadata.Scope = models.ProjectScope("/work/app")
	project.Metadata.LastAccessedAt = time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	project.Metadata.ExpiresAt = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	project.Metadata.RotationInterval = 90 * 24 * time.Hour
	project.Metadata.AccessCount = 7
	project.Metadata.Tags = nil

	data := mustEncode(t, header, testRecord("gh"), project)

	gotHeader, records, err := decodeVault(data)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	require.Len(t, records, 2)
	assert.Equal(t, testRecord("gh"), records[0])
	assert.Equal(t, project, records[1])
}

func TestEncodeVault_FieldOrder(t *testing.T) {
	data := mustEncode(t, testHeader())

	assert.Equal(t, models.FormatVersion, binary.BigEndian.Uint32(data[0:4]), "format version leads the file")
	assert.Equal(t, byte(16), data[4], "salt length follows")
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(data[len(data)-4:]), "empty record table ends the file")
}

func TestDecodeVault_StructuralFailures(t *testing.T) {
	valid := mustEncode(t, testHeader(), testRecord("gh"))

	badVersion := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badVersion[0:4], 99)

	badCipher := testHeader()
	badCipher.Cipher = models.CipherSuite(42)

	badKDF := testHeader()
	badKDF.KDF.MemoryKiB = 1

	badType := testRecord("gh")
	badType.Metadata.Type = models.CredentialType(77)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty file", nil},
		{"unsupported version", badVersion},
		{"truncated header", valid[:10]},
		{"truncated record", valid[:len(valid)-3]},
		{"trailing bytes", append(append([]byte(nil), valid...), 0x00)},
		{"unknown cipher", mustEncode(t, badCipher)},
		{"kdf out of bounds", mustEncode(t, badKDF)},
		{"unknown credential type", mustEncode(t, testHeader(), badType)},
		{"duplicate names", mustEncode(t, testHeader(), testRecord("gh"), testRecord("gh"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeVault(tt.data)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecodeVault_ForgedRecordCount(t *testing.T) {
	data := mustEncode(t, testHeader())
	binary.BigEndian.PutUint32(data[len(data)-4:], 1<<30)

	_, _, err := decodeVault(data)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCanonicalMetadata_IgnoresAccessCounters(t *testing.T) {
	m := testRecord("gh").Metadata

	before, err := CanonicalMetadata(m)
	require.NoError(t, err)

	m.LastAccessedAt = time.Now()
	m.AccessCount = 42
	after, err := CanonicalMetadata(m)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	m.Description = "changed"
	changed, err := CanonicalMetadata(m)
	require.NoError(t, err)
	assert.NotEqual(t, before, changed)
}

func TestEncodeDecodeVault_TimesOutsideNanosecondRange(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
	}{
		{"far future", time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)},
		{"unix epoch", time.Unix(0, 0).UTC()},
		{"before 1678", time.Date(1500, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"unset", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord("gh")
			rec.Metadata.ExpiresAt = tt.expiresAt

			_, records, err := decodeVault(mustEncode(t, testHeader(), rec))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.True(t, tt.expiresAt.Equal(records[0].Metadata.ExpiresAt), "got %v", records[0].Metadata.ExpiresAt)
			assert.Equal(t, tt.expiresAt.IsZero(), records[0].Metadata.ExpiresAt.IsZero())
		})
	}
}

func TestDecoder_RejectsNanosecondOverflow(t *testing.T) {
	e := &encoder{}
	e.i64(0)
	e.u32(uint32(time.Second))

	d := &decoder{data: e.buf}
	d.time()
	require.ErrorIs(t, d.err, ErrCorrupt)
}
