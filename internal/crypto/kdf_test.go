package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MKhiriev/credvault/models"
)

func TestDefaultKDFParams_Valid(t *testing.T) {
	p := DefaultKDFParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultKDFParams invalid: %v", err)
	}
	if p.Parallelism < 1 || p.Parallelism > 4 {
		t.Fatalf("parallelism = %d, want within [1, 4]", p.Parallelism)
	}
	if err := MinimalKDFParams().Validate(); err != nil {
		t.Fatalf("MinimalKDFParams invalid: %v", err)
	}
}

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	salt := bytes.Repeat([]byte{0xAB}, SaltSize)

	k1, err := deriveKey([]byte("correct horse battery staple"), salt, MinimalKDFParams())
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	k2, err := deriveKey([]byte("correct horse battery staple"), salt, MinimalKDFParams())
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}

	if len(k1) != KeySize {
		t.Fatalf("key length = %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected keys to match for same passphrase+salt")
	}
}

func TestDeriveKey_SingleInputChangeProducesUnrelatedKey(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, SaltSize)
	otherSalt := bytes.Clone(salt)
	otherSalt[SaltSize-1] ^= 0x01
	slower := MinimalKDFParams()
	slower.Iterations = 2

	base, err := deriveKey([]byte("same password"), salt, MinimalKDFParams())
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}

	variants := map[string]func() ([]byte, error){
		"salt bit": func() ([]byte, error) { return deriveKey([]byte("same password"), otherSalt, MinimalKDFParams()) },
		"passphrase": func() ([]byte, error) {
			return deriveKey([]byte("same passwore"), salt, MinimalKDFParams())
		},
		"iterations": func() ([]byte, error) { return deriveKey([]byte("same password"), salt, slower) },
	}

	for name, derive := range variants {
		t.Run(name, func(t *testing.T) {
			got, err := derive()
			if err != nil {
				t.Fatalf("deriveKey error: %v", err)
			}
			if bytes.Equal(base, got) {
				t.Fatalf("expected a different key")
			}
		})
	}
}

func TestDeriveKey_RejectsBadInput(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, SaltSize)
	cheap := MinimalKDFParams()
	tooCheap := cheap
	tooCheap.MemoryKiB = 1024

	tests := []struct {
		name       string
		passphrase []byte
		salt       []byte
		params     models.KDFParams
		want       error
	}{
		{"empty passphrase", nil, salt, cheap, ErrEmptyPassphrase},
		{"short salt", []byte("pw"), salt[:8], cheap, ErrInvalidSalt},
		{"memory below floor", []byte("pw"), salt, tooCheap, models.ErrInvalidKDFParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := deriveKey(tt.passphrase, tt.salt, tt.params); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
