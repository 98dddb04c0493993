// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits applied to caller-supplied metadata. They keep every field inside
// the width of its length prefix in the vault file.
const (
	MaxNameLength        = 256
	MaxDescriptionLength = 4096
	MaxTagCount          = 32
	MaxTagLength         = 64
	MaxScopePathLength   = 4096
)

// Metadata validation errors. The vault layer wraps them into its own
// invalid-metadata error.
var (
	ErrEmptyName          = errors.New("credential name is empty")
	ErrNameTooLong        = errors.New("credential name is too long")
	ErrInvalidName        = errors.New("credential name is not valid UTF-8")
	ErrUnknownType        = errors.New("unknown credential type")
	ErrInvalidScope       = errors.New("invalid credential scope")
	ErrDescriptionTooLong = errors.New("credential description is too long")
	ErrInvalidTag         = errors.New("invalid credential tag")
	ErrTooManyTags        = errors.New("too many credential tags")
	ErrNegativeRotation   = errors.New("rotation interval must not be negative")
)

// CredentialType defines what kind of secret a credential holds.
// The set is closed; callers are expected to switch over it exhaustively.
type CredentialType uint8

const (
	// CredentialTypeAPIToken is a bearer token for an HTTP API
	// (issue tracker, code host, etc.).
	CredentialTypeAPIToken CredentialType = 1

	// CredentialTypeUsername is a login name stored next to a password.
	CredentialTypeUsername CredentialType = 2

	// CredentialTypePassword is a plain password.
	CredentialTypePassword CredentialType = 3

	// CredentialTypeSSHKey is a private SSH key in any text encoding.
	CredentialTypeSSHKey CredentialType = 4

	// CredentialTypeOther is anything else.
	CredentialTypeOther CredentialType = 5
)

var credentialTypeNames = map[CredentialType]string{
	CredentialTypeAPIToken: "api_token",
	CredentialTypeUsername: "username",
	CredentialTypePassword: "password",
	CredentialTypeSSHKey:   "ssh_key",
	CredentialTypeOther:    "other",
}

// String returns the lower-case wire name of t.
func (t CredentialType) String() string {
	if name, ok := credentialTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("credential_type(%d)", uint8(t))
}

// Valid reports whether t is one of the declared credential types.
func (t CredentialType) Valid() bool {
	_, ok := credentialTypeNames[t]
	return ok
}

// ParseCredentialType converts a wire name such as "api_token" back into a
// [CredentialType]. Matching is case-insensitive.
func ParseCredentialType(s string) (CredentialType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range credentialTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// ScopeKind discriminates the two variants of [Scope].
type ScopeKind uint8

const (
	// ScopeKindGlobal marks a credential visible to every caller.
	ScopeKindGlobal ScopeKind = 1

	// ScopeKindProject marks a credential visible only to callers working
	// inside one project directory.
	ScopeKindProject ScopeKind = 2
)

// Scope is the tagged union GLOBAL | PROJECT(path).
// Construct it with [GlobalScope] or [ProjectScope]; the zero value is
// invalid.
type Scope struct {
	Kind ScopeKind
	// Path is the cleaned project directory. Empty for global scope.
	Path string
}

// GlobalScope returns the scope shared by all callers.
func GlobalScope() Scope {
	return Scope{Kind: ScopeKindGlobal}
}

// ProjectScope returns a scope bound to the project at path.
// The path is cleaned so that "a/b/" and "a/b" compare equal.
func ProjectScope(path string) Scope {
	return Scope{Kind: ScopeKindProject, Path: filepath.Clean(path)}
}

// IsGlobal reports whether s is the global scope.
func (s Scope) IsGlobal() bool { return s.Kind == ScopeKindGlobal }

// Validate checks that the variant and its payload agree.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeKindGlobal:
		if s.Path != "" {
			return fmt.Errorf("%w: global scope carries a path", ErrInvalidScope)
		}
		return nil
	case ScopeKindProject:
		if s.Path == "" || s.Path == "." {
			return fmt.Errorf("%w: project scope requires a path", ErrInvalidScope)
		}
		if len(s.Path) > MaxScopePathLength {
			return fmt.Errorf("%w: project path is too long", ErrInvalidScope)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidScope, s.Kind)
	}
}

// VisibleFrom reports whether a caller operating in project can see a
// credential with scope s. Global credentials are visible everywhere.
func (s Scope) VisibleFrom(project string) bool {
	switch s.Kind {
	case ScopeKindGlobal:
		return true
	case ScopeKindProject:
		return project != "" && s.Path == filepath.Clean(project)
	default:
		return false
	}
}

// String renders "global" or "project:<path>".
func (s Scope) String() string {
	switch s.Kind {
	case ScopeKindGlobal:
		return "global"
	case ScopeKindProject:
		return "project:" + s.Path
	default:
		return fmt.Sprintf("scope(%d)", s.Kind)
	}
}

// CredentialMetadata describes a stored secret without revealing it.
//
// Name, Type, Description, Scope, Tags, CreatedAt, ExpiresAt and
// RotationInterval are fixed once the credential is stored. LastAccessedAt
// and AccessCount change on every successful read.
type CredentialMetadata struct {
	// Name is the unique key of the credential inside one vault.
	Name string

	// Type classifies the secret.
	Type CredentialType

	// Description is optional free text.
	Description string

	// Scope controls which callers can see the credential.
	Scope Scope

	// Tags are optional labels used for filtering.
	Tags []string

	// CreatedAt is set by the vault when the credential is stored.
	CreatedAt time.Time

	// LastAccessedAt is the time of the last successful read, zero if the
	// credential has never been read.
	LastAccessedAt time.Time

	// ExpiresAt is an optional hard expiry. Zero means the credential never
	// expires.
	ExpiresAt time.Time

	// RotationInterval is an optional hint for how often the secret should
	// be replaced. Zero disables the hint.
	RotationInterval time.Duration

	// AccessCount is the number of successful reads.
	AccessCount uint64
}

// Validate checks the caller-controlled fields of m.
func (m CredentialMetadata) Validate() error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return ErrEmptyName
	case len(m.Name) > MaxNameLength:
		return fmt.Errorf("%w: %d > %d bytes", ErrNameTooLong, len(m.Name), MaxNameLength)
	case !utf8.ValidString(m.Name):
		return ErrInvalidName
	case !m.Type.Valid():
		return fmt.Errorf("%w: %d", ErrUnknownType, m.Type)
	case len(m.Description) > MaxDescriptionLength:
		return ErrDescriptionTooLong
	case len(m.Tags) > MaxTagCount:
		return fmt.Errorf("%w: %d > %d", ErrTooManyTags, len(m.Tags), MaxTagCount)
	case m.RotationInterval < 0:
		return ErrNegativeRotation
	}

	if err := m.Scope.Validate(); err != nil {
		return err
	}

	for _, tag := range m.Tags {
		if tag == "" || len(tag) > MaxTagLength || !utf8.ValidString(tag) || strings.ContainsAny(tag, " \t\r\n") {
			return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}
	return nil
}

// IsExpired reports whether m has an expiry that lies at or before now.
func (m CredentialMetadata) IsExpired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && !now.Before(m.ExpiresAt)
}

// NeedsRotation reports whether the rotation interval has elapsed since the
// credential was created.
func (m CredentialMetadata) NeedsRotation(now time.Time) bool {
	if m.RotationInterval <= 0 {
		return false
	}
	return now.Sub(m.CreatedAt) >= m.RotationInterval
}

// HasTag reports whether m carries tag.
func (m CredentialMetadata) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// CredentialFilter narrows a credential listing. Zero fields match
// everything.
type CredentialFilter struct {
	// Scope, when set, keeps only credentials whose scope equals it.
	Scope *Scope

	// VisibleFrom, when set, keeps only credentials visible to a caller
	// working in that project directory (global ones included).
	VisibleFrom string

	// Type, when non-zero, keeps only credentials of that type.
	Type CredentialType

	// Tag, when set, keeps only credentials carrying it.
	Tag string
}

// Match reports whether m passes every criterion of f.
func (f CredentialFilter) Match(m CredentialMetadata) bool {
	if f.Scope != nil && m.Scope != *f.Scope {
		return false
	}
	if f.VisibleFrom != "" && !m.Scope.VisibleFrom(f.VisibleFrom) {
		return false
	}
	if f.Type != 0 && m.Type != f.Type {
		return false
	}
	if f.Tag != "" && !m.HasTag(f.Tag) {
		return false
	}
	return true
}
