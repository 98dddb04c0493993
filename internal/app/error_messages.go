// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains the user-facing wording of the credvault command.
//
// All Msg* constants are human-readable message strings printed to the
// terminal when an operation fails. Keeping them in one place ensures
// consistent wording across subcommands, and guarantees that no message
// echoes a secret or the reason a credential lookup failed.
package app

import (
	"context"
	"errors"
	"flag"

	"github.com/MKhiriev/credvault/internal/config"
	"github.com/MKhiriev/credvault/internal/vault"
)

const (
	// MsgAlreadyInitialized is printed when init targets a directory that
	// already holds a vault.
	MsgAlreadyInitialized = "a vault already exists in this directory"

	// MsgVaultNotFound is printed when no vault exists at the configured
	// directory.
	MsgVaultNotFound = "no vault found; run `credvault init` first"

	// MsgWrongPassword is printed for a master password that does not
	// unlock the vault.
	MsgWrongPassword = "wrong master password"

	// MsgTooManyAttempts is printed while the failed-attempt lockout is
	// active.
	MsgTooManyAttempts = "too many failed attempts; try again later"

	// MsgCorruptVault is printed when the vault file fails its structural
	// checks. The vault must be restored from a backup.
	MsgCorruptVault = "vault file is corrupt; restore it from a backup"

	// MsgCorruptRecord is printed when a stored credential fails
	// authentication.
	MsgCorruptRecord = "credential record failed integrity check"

	// MsgDuplicateName is printed when storing under a name that is taken.
	MsgDuplicateName = "a credential with this name already exists"

	// MsgNotFound is printed for any credential name that cannot be read.
	MsgNotFound = "credential not found"

	// MsgExpired is printed for a credential whose expiry has passed.
	MsgExpired = "credential has expired"

	// MsgInvalidMetadata is printed when the store flags describe an
	// invalid credential.
	MsgInvalidMetadata = "invalid credential details"

	// MsgVaultBusy is printed when another process holds the vault lock for
	// longer than the lock timeout.
	MsgVaultBusy = "vault is busy; try again"

	// MsgSessionClosed is printed when a session expired mid-command.
	MsgSessionClosed = "vault session closed"

	// MsgTamperedLog is printed when the audit chain does not verify.
	MsgTamperedLog = "audit log has been tampered with"

	// MsgEmptyPassphrase is printed when the prompt returned nothing.
	MsgEmptyPassphrase = "master password must not be empty"

	// MsgPassphraseMismatch is printed when the confirmation prompt does
	// not match.
	MsgPassphraseMismatch = "passwords do not match"

	// MsgNotATerminal is printed when a master password is requested
	// without an interactive terminal.
	MsgNotATerminal = "a terminal is required to enter the master password"

	// MsgInvalidConfig is printed for configuration errors.
	MsgInvalidConfig = "invalid configuration"

	// MsgUsage is printed for unknown subcommands or bad arguments.
	MsgUsage = "invalid usage; run `credvault help`"

	// MsgInterrupted is printed when the command was cancelled.
	MsgInterrupted = "interrupted"

	// MsgIOError is printed for filesystem failures.
	MsgIOError = "vault i/o error"
)

// Errors raised by the command layer itself.
var (
	ErrPassphraseMismatch = errors.New(MsgPassphraseMismatch)
	ErrNotATerminal       = errors.New(MsgNotATerminal)
	ErrUsage              = errors.New(MsgUsage)
)

var messages = []struct {
	err error
	msg string
}{
	{vault.ErrAlreadyInitialized, MsgAlreadyInitialized},
	{vault.ErrVaultNotFound, MsgVaultNotFound},
	{vault.ErrWrongPassword, MsgWrongPassword},
	{vault.ErrTooManyAttempts, MsgTooManyAttempts},
	{vault.ErrCorruptVault, MsgCorruptVault},
	{vault.ErrCorruptRecord, MsgCorruptRecord},
	{vault.ErrDuplicateName, MsgDuplicateName},
	{vault.ErrNotFound, MsgNotFound},
	{vault.ErrCredentialExpired, MsgExpired},
	{vault.ErrInvalidMetadata, MsgInvalidMetadata},
	{vault.ErrVaultBusy, MsgVaultBusy},
	{vault.ErrSessionClosed, MsgSessionClosed},
	{vault.ErrTamperedLog, MsgTamperedLog},
	{vault.ErrEmptyPassphrase, MsgEmptyPassphrase},
	{ErrPassphraseMismatch, MsgPassphraseMismatch},
	{ErrNotATerminal, MsgNotATerminal},
	{config.ErrInvalidVaultConfigs, MsgInvalidConfig},
	{config.ErrInvalidKDFConfigs, MsgInvalidConfig},
	{config.ErrInvalidLogConfigs, MsgInvalidConfig},
	{vault.ErrInvalidOptions, MsgInvalidConfig},
	{ErrUsage, MsgUsage},
	{flag.ErrHelp, MsgUsage},
	{context.Canceled, MsgInterrupted},
	{vault.ErrIO, MsgIOError},
}

// Message returns the terminal wording for err. Errors outside the known
// taxonomy are printed as they are.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

// ExitCode returns the process exit status for err: 0 on success, 2 for
// usage and configuration errors, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, flag.ErrHelp),
		errors.Is(err, config.ErrInvalidVaultConfigs),
		errors.Is(err, config.ErrInvalidKDFConfigs),
		errors.Is(err, config.ErrInvalidLogConfigs):
		return 2
	default:
		return 1
	}
}
