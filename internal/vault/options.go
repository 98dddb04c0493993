package vault

import (
	"fmt"
	"time"

	"github.com/MKhiriev/credvault/internal/audit"
	"github.com/MKhiriev/credvault/internal/crypto"
	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/internal/store"
	"github.com/MKhiriev/credvault/models"
)

// Default option values.
const (
	DefaultLockTimeout       = 5 * time.Second
	DefaultIdleTimeout       = time.Hour
	DefaultMaxFailedAttempts = 5
	DefaultLockoutCooldown   = 30 * time.Second
)

// lockoutScanWindow bounds how many audit entries are read backwards when
// counting consecutive failed unlocks.
const lockoutScanWindow = 256

// Options tune one vault. The zero value is usable: every unset field takes
// its default. The vault never reads the environment; callers resolve
// configuration and pass it here.
type Options struct {
	// LockTimeout bounds the wait for the vault lock before ErrVaultBusy.
	LockTimeout time.Duration

	// IdleTimeout closes a session that has not been used for this long.
	// The check is lazy, on the next call. Negative disables it.
	IdleTimeout time.Duration

	// MaxFailedAttempts consecutive failed unlocks trigger the lockout.
	// Negative disables the lockout.
	MaxFailedAttempts int

	// LockoutCooldown is how long after the last failed attempt the
	// lockout stays active.
	LockoutCooldown time.Duration

	// KDF holds the Argon2id parameters for new vaults and for rotation.
	// Existing vaults are always unlocked with the parameters in their
	// header.
	KDF models.KDFParams

	// Cipher selects the AEAD for new vaults.
	Cipher models.CipherSuite

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives operational logs. Defaults to a no-op logger.
	Logger *logger.Logger

	// NewKeyChain builds the crypto service for a cipher suite. Defaults to
	// crypto.NewKeyChainService.
	NewKeyChain func(models.CipherSuite) (crypto.KeyChainService, error)

	// NewAuditLog opens the audit log of a vault directory. Defaults to a
	// FileLog on audit.log.
	NewAuditLog func(dir string, log *logger.Logger) audit.Log
}

// DefaultOptions returns Options with every field set to its default.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.LockTimeout == 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.MaxFailedAttempts == 0 {
		o.MaxFailedAttempts = DefaultMaxFailedAttempts
	}
	if o.LockoutCooldown == 0 {
		o.LockoutCooldown = DefaultLockoutCooldown
	}
	if o.KDF == (models.KDFParams{}) {
		o.KDF = crypto.DefaultKDFParams()
	}
	if o.Cipher == 0 {
		o.Cipher = models.CipherAES256GCM
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.NewKeyChain == nil {
		o.NewKeyChain = crypto.NewKeyChainService
	}
	if o.NewAuditLog == nil {
		o.NewAuditLog = func(dir string, log *logger.Logger) audit.Log {
			return audit.NewFileLog(store.AuditPath(dir), log)
		}
	}
	return o
}

func (o Options) validate() error {
	if err := o.KDF.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if !o.Cipher.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidOptions, models.ErrUnsupportedCipher, o.Cipher)
	}
	if o.LockTimeout < 0 {
		return fmt.Errorf("%w: lock timeout must not be negative", ErrInvalidOptions)
	}
	return nil
}

func (o Options) now() time.Time {
	return o.Clock().UTC()
}

// environment bundles the collaborators of one vault directory.
type environment struct {
	dir    string
	opts   Options
	store  store.Store
	audit  audit.Log
	logger *logger.Logger
}

func newEnvironment(dir string, opts Options) (*environment, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	log := opts.Logger.GetChildLogger()
	log.Logger = log.With().Str("vault_dir", dir).Logger()

	return &environment{
		dir:    dir,
		opts:   opts,
		store:  store.NewStore(dir, opts.LockTimeout, log),
		audit:  opts.NewAuditLog(dir, log),
		logger: log,
	}, nil
}
