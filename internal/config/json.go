package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] in the layout of the JSON
// config file. Durations may be written as strings ("5s") or nanoseconds.
type StructuredJSONConfig struct {
	Vault struct {
		Dir               string   `json:"dir"`
		LockTimeout       Duration `json:"lock_timeout"`
		IdleTimeout       Duration `json:"idle_timeout"`
		MaxFailedAttempts int      `json:"max_failed_attempts"`
		LockoutCooldown   Duration `json:"lockout_cooldown"`
	} `json:"vault,omitempty"`

	KDF struct {
		MemoryKiB   uint32 `json:"memory_kib"`
		Iterations  uint32 `json:"iterations"`
		Parallelism uint8  `json:"parallelism"`
		Cipher      string `json:"cipher"`
	} `json:"kdf,omitempty"`

	Log struct {
		Level string `json:"level"`
		File  string `json:"file"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	decoder := json.NewDecoder(jsonFile)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Vault: Vault{
			Dir:               jsonCfg.Vault.Dir,
			LockTimeout:       time.Duration(jsonCfg.Vault.LockTimeout),
			IdleTimeout:       time.Duration(jsonCfg.Vault.IdleTimeout),
			MaxFailedAttempts: jsonCfg.Vault.MaxFailedAttempts,
			LockoutCooldown:   time.Duration(jsonCfg.Vault.LockoutCooldown),
		},
		KDF: KDF{
			MemoryKiB:   jsonCfg.KDF.MemoryKiB,
			Iterations:  jsonCfg.KDF.Iterations,
			Parallelism: jsonCfg.KDF.Parallelism,
			Cipher:      jsonCfg.KDF.Cipher,
		},
		Log: Log{
			Level: jsonCfg.Log.Level,
			File:  jsonCfg.Log.File,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
