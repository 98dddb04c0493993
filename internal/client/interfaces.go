// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run executes the subcommand in args and returns when it is done.
	Run(ctx context.Context, args []string) error
}

// Prompter reads secrets from the user. Returned slices belong to the
// caller, who must wipe them.
type Prompter interface {
	// ReadPassphrase asks for a master password. It fails when no
	// interactive terminal is attached.
	ReadPassphrase(prompt string) ([]byte, error)

	// ReadSecret asks for a credential secret without echoing it.
	ReadSecret(prompt string) ([]byte, error)
}

// Clipboard receives secrets for `get -clip`.
type Clipboard interface {
	WriteAll(text string) error
}
