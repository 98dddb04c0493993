// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/credvault/models"
)

// minSaltLen is the shortest salt accepted when reading a header back.
const minSaltLen = 16

// encoder appends big-endian fields to a growing buffer. Length-prefixed
// writers report an overflow instead of silently truncating.
type encoder struct {
	buf []byte
	err error
}

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }
func (e *encoder) raw(b []byte) { e.buf = append(e.buf, b...) }

func (e *encoder) bytes8(b []byte) {
	if len(b) > math.MaxUint8 {
		e.fail("field of %d bytes exceeds u8 length prefix", len(b))
		return
	}
	e.u8(uint8(len(b)))
	e.raw(b)
}

func (e *encoder) bytes16(b []byte) {
	if len(b) > math.MaxUint16 {
		e.fail("field of %d bytes exceeds u16 length prefix", len(b))
		return
	}
	e.u16(uint16(len(b)))
	e.raw(b)
}

func (e *encoder) bytes32(b []byte) {
	if uint64(len(b)) > math.MaxUint32 {
		e.fail("field of %d bytes exceeds u32 length prefix", len(b))
		return
	}
	e.u32(uint32(len(b)))
	e.raw(b)
}

// time writes t as Unix seconds and nanoseconds. The zero time is written
// as its own Unix value, so every instant, the epoch included, stays
// distinct from "unset".
func (e *encoder) time(t time.Time) {
	e.i64(t.Unix())
	e.u32(uint32(t.Nanosecond()))
}

func (e *encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidRecord}, args...)...)
	}
}

// decoder reads big-endian fields. The first short read sticks, so callers
// check err once after a group of reads.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = fmt.Errorf("%w: truncated at offset %d", ErrCorrupt, d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) i64() int64 { return int64(d.u64()) }

// clone copies so decoded values never alias the file buffer.
func (d *decoder) clone(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (d *decoder) bytes8() []byte  { return d.clone(int(d.u8())) }
func (d *decoder) bytes16() []byte { return d.clone(int(d.u16())) }
func (d *decoder) bytes32() []byte { return d.clone(int(d.u32())) }

func (d *decoder) time() time.Time {
	sec, nsec := d.i64(), d.u32()
	if nsec >= uint32(time.Second) {
		d.corrupt("nanoseconds %d out of range", nsec)
		return time.Time{}
	}
	t := time.Unix(sec, int64(nsec)).UTC()
	if t.IsZero() {
		return time.Time{}
	}
	return t
}

func (d *decoder) corrupt(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
	}
}

// encodeVault serialises the header and record table into the vault.dat
// layout: format version, salt, KDF parameters, wrapped DEK, then the
// counted record table.
func encodeVault(header models.VaultHeader, records []models.EncryptedRecord) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, 256+len(records)*128)}

	e.u32(header.FormatVersion)
	e.bytes8(header.Salt)

	e.u8(uint8(header.KDF.Algorithm))
	e.u32(header.KDF.MemoryKiB)
	e.u32(header.KDF.Iterations)
	e.u8(header.KDF.Parallelism)
	e.u32(header.KDF.KeyLen)

	e.u8(uint8(header.Cipher))
	e.raw(header.VaultID[:])
	e.bytes8(header.WrappedDEK.Nonce)
	e.bytes32(header.WrappedDEK.Ciphertext)

	e.u32(uint32(len(records)))
	for _, rec := range records {
		encodeMetadata(e, rec.Metadata, true)
		e.bytes8(rec.Nonce)
		e.bytes32(rec.Ciphertext)
	}

	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// encodeMetadata writes the metadata fields in file order. With mutable set
// to false the access counters are left out, which yields the canonical
// form of the fields that never change after a credential is stored.
func encodeMetadata(e *encoder, m models.CredentialMetadata, mutable bool) {
	e.bytes16([]byte(m.Name))
	e.u8(uint8(m.Type))
	e.u8(uint8(m.Scope.Kind))
	e.bytes16([]byte(m.Scope.Path))
	e.bytes16([]byte(m.Description))

	if len(m.Tags) > math.MaxUint8 {
		e.fail("%d tags exceed u8 count", len(m.Tags))
		return
	}
	e.u8(uint8(len(m.Tags)))
	for _, tag := range m.Tags {
		e.bytes8([]byte(tag))
	}

	e.time(m.CreatedAt)
	if mutable {
		e.time(m.LastAccessedAt)
	}
	e.time(m.ExpiresAt)
	e.i64(int64(m.RotationInterval))
	if mutable {
		e.u64(m.AccessCount)
	}
}

// CanonicalMetadata returns a stable byte encoding of the immutable fields
// of m. It is bound into each record's associated data so that editing
// those fields on disk breaks authentication of the secret.
func CanonicalMetadata(m models.CredentialMetadata) ([]byte, error) {
	e := &encoder{}
	encodeMetadata(e, m, false)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// decodeVault parses vault.dat. Every structural problem is reported as
// ErrCorrupt; cryptographic validity is not checked here.
func decodeVault(data []byte) (models.VaultHeader, []models.EncryptedRecord, error) {
	d := &decoder{data: data}
	var h models.VaultHeader

	h.FormatVersion = d.u32()
	if d.err == nil && h.FormatVersion != models.FormatVersion {
		d.corrupt("unsupported format version %d", h.FormatVersion)
	}

	h.Salt = d.bytes8()
	if d.err == nil && len(h.Salt) < minSaltLen {
		d.corrupt("salt of %d bytes is too short", len(h.Salt))
	}

	h.KDF.Algorithm = models.KDFAlgorithm(d.u8())
	h.KDF.MemoryKiB = d.u32()
	h.KDF.Iterations = d.u32()
	h.KDF.Parallelism = d.u8()
	h.KDF.KeyLen = d.u32()
	if d.err == nil {
		if err := h.KDF.Validate(); err != nil {
			d.corrupt("%v", err)
		}
	}

	h.Cipher = models.CipherSuite(d.u8())
	if d.err == nil && !h.Cipher.Valid() {
		d.corrupt("unknown cipher suite %d", uint8(h.Cipher))
	}

	if id := d.take(16); id != nil {
		h.VaultID = uuid.UUID(id)
	}
	h.WrappedDEK.Nonce = d.bytes8()
	h.WrappedDEK.Ciphertext = d.bytes32()
	if d.err == nil && (len(h.WrappedDEK.Nonce) == 0 || len(h.WrappedDEK.Ciphertext) == 0) {
		d.corrupt("wrapped key is empty")
	}

	count := d.u32()
	if d.err != nil {
		return models.VaultHeader{}, nil, d.err
	}

	// Each record needs well over 32 bytes, which bounds a forged count.
	if uint64(count)*32 > uint64(len(data)-d.off) {
		return models.VaultHeader{}, nil, fmt.Errorf("%w: record count %d exceeds file size", ErrCorrupt, count)
	}

	records := make([]models.EncryptedRecord, 0, count)
	seen := make(map[string]struct{}, count)
	for i := uint32(0); i < count; i++ {
		rec := decodeRecord(d)
		if d.err != nil {
			return models.VaultHeader{}, nil, fmt.Errorf("record %d: %w", i, d.err)
		}
		if err := rec.Metadata.Validate(); err != nil {
			return models.VaultHeader{}, nil, fmt.Errorf("%w: record %d: %w", ErrCorrupt, i, err)
		}
		if _, dup := seen[rec.Metadata.Name]; dup {
			return models.VaultHeader{}, nil, fmt.Errorf("%w: duplicate record name %q", ErrCorrupt, rec.Metadata.Name)
		}
		seen[rec.Metadata.Name] = struct{}{}
		records = append(records, rec)
	}

	if d.off != len(data) {
		return models.VaultHeader{}, nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-d.off)
	}
	return h, records, nil
}

func decodeRecord(d *decoder) models.EncryptedRecord {
	var m models.CredentialMetadata

	m.Name = string(d.bytes16())
	m.Type = models.CredentialType(d.u8())
	m.Scope.Kind = models.ScopeKind(d.u8())
	m.Scope.Path = string(d.bytes16())
	m.Description = string(d.bytes16())

	if n := int(d.u8()); n > 0 {
		m.Tags = make([]string, 0, n)
		for range n {
			m.Tags = append(m.Tags, string(d.bytes8()))
		}
	}

	m.CreatedAt = d.time()
	m.LastAccessedAt = d.time()
	m.ExpiresAt = d.time()
	m.RotationInterval = time.Duration(d.i64())
	m.AccessCount = d.u64()

	rec := models.EncryptedRecord{Metadata: m}
	rec.Nonce = d.bytes8()
	rec.Ciphertext = d.bytes32()
	if d.err == nil && (len(rec.Nonce) == 0 || len(rec.Ciphertext) == 0) {
		d.corrupt("record %q has no ciphertext", m.Name)
	}
	return rec
}
