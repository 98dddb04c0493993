// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the credvault command-line application.
//
// It maps subcommands onto the vault API, prompts for master passwords on
// the terminal and renders listings. Every secret read from a prompt or
// from the vault is wiped once the command is done with it.
package client
