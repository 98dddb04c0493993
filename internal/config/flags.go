package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/MKhiriev/credvault/models"
)

// CipherName holds a validated cipher suite name.
// It implements the flag.Value interface.
type CipherName struct {
	Suite models.CipherSuite
}

type flagValues struct {
	dir               string
	jsonConfigPath    string
	lockTimeout       time.Duration
	idleTimeout       time.Duration
	maxFailedAttempts int
	lockoutCooldown   time.Duration
	kdfMemory         uint
	kdfIterations     uint
	kdfParallelism    uint
	cipher            CipherName
	logLevel          string
	logFile           string
}

// ParseFlags parses the global configuration flags from args and returns
// the config they describe together with the remaining arguments, which
// start with the subcommand.
//
// Flags:
//
//	-d/-dir vault directory
//	-c/-config json file path with configs
//	-lock-timeout vault lock timeout (e.g., "5s")
//	-idle-timeout session idle timeout (e.g., "15m", negative disables)
//	-max-failed-attempts failed unlocks before lockout (negative disables)
//	-lockout-cooldown lockout duration after the last failure
//	-kdf-memory argon2id memory in KiB
//	-kdf-iterations argon2id iterations
//	-kdf-parallelism argon2id lanes
//	-cipher aes-256-gcm or xchacha20-poly1305
//	-log-level diagnostic log level
//	-log-file diagnostic log file
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var v flagValues
	fs := newFlagSet(io.Discard, &v)

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}
	if v.kdfMemory > math.MaxUint32 || v.kdfIterations > math.MaxUint32 || v.kdfParallelism > math.MaxUint8 {
		return nil, nil, fmt.Errorf("%w: kdf flag value out of range", ErrInvalidKDFConfigs)
	}

	return &StructuredConfig{
		Vault: Vault{
			Dir:               v.dir,
			LockTimeout:       v.lockTimeout,
			IdleTimeout:       v.idleTimeout,
			MaxFailedAttempts: v.maxFailedAttempts,
			LockoutCooldown:   v.lockoutCooldown,
		},
		KDF: KDF{
			MemoryKiB:   uint32(v.kdfMemory),
			Iterations:  uint32(v.kdfIterations),
			Parallelism: uint8(v.kdfParallelism),
			Cipher:      v.cipher.String(),
		},
		Log: Log{
			Level: v.logLevel,
			File:  v.logFile,
		},
		JSONFilePath: v.jsonConfigPath,
	}, fs.Args(), nil
}

// PrintFlags writes the global flag defaults to w.
func PrintFlags(w io.Writer) {
	newFlagSet(w, &flagValues{}).PrintDefaults()
}

func newFlagSet(out io.Writer, v *flagValues) *flag.FlagSet {
	fs := flag.NewFlagSet("credvault", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&v.dir, "d", "", "Vault directory")
	fs.StringVar(&v.dir, "dir", "", "Vault directory (alias)")
	fs.StringVar(&v.jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&v.jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&v.lockTimeout, "lock-timeout", 0, "Vault lock timeout (e.g., 5s)")
	fs.DurationVar(&v.idleTimeout, "idle-timeout", 0, "Session idle timeout (e.g., 15m), negative disables")
	fs.IntVar(&v.maxFailedAttempts, "max-failed-attempts", 0, "Failed unlocks before lockout, negative disables")
	fs.DurationVar(&v.lockoutCooldown, "lockout-cooldown", 0, "Lockout duration after the last failed unlock")
	fs.UintVar(&v.kdfMemory, "kdf-memory", 0, "Argon2id memory in KiB")
	fs.UintVar(&v.kdfIterations, "kdf-iterations", 0, "Argon2id iterations")
	fs.UintVar(&v.kdfParallelism, "kdf-parallelism", 0, "Argon2id parallelism")
	fs.Var(&v.cipher, "cipher", "AEAD cipher: aes-256-gcm or xchacha20-poly1305")
	fs.StringVar(&v.logLevel, "log-level", "", "Diagnostic log level")
	fs.StringVar(&v.logFile, "log-file", "", "Diagnostic log file")
	return fs
}

// String returns the canonical suite name, or "" if none was set.
func (c *CipherName) String() string {
	if c == nil || c.Suite == 0 {
		return ""
	}
	return c.Suite.String()
}

// Set parses a cipher suite name such as "aes-256-gcm".
func (c *CipherName) Set(s string) error {
	suite, err := models.ParseCipherSuite(s)
	if err != nil {
		return err
	}
	c.Suite = suite
	return nil
}
