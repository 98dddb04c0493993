package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when a
// configuration group is incomplete or invalid.
var (
	// ErrInvalidVaultConfigs indicates invalid vault settings
	// (for example, an empty directory or a negative lock timeout).
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
	// ErrInvalidKDFConfigs indicates KDF parameters outside the supported
	// bounds or an unknown cipher name.
	ErrInvalidKDFConfigs = errors.New("invalid kdf configuration")
	// ErrInvalidLogConfigs indicates an unknown log level.
	ErrInvalidLogConfigs = errors.New("invalid log configuration")
)
