// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Operation names the vault action an audit entry records.
type Operation string

const (
	OpInit          Operation = "INIT"
	OpUnlockSuccess Operation = "UNLOCK_SUCCESS"
	OpUnlockFailure Operation = "UNLOCK_FAILURE"
	OpStore         Operation = "STORE"
	OpGet           Operation = "GET"
	OpDelete        Operation = "DELETE"
	OpRotate        Operation = "ROTATE"
)

// Valid reports whether op is one of the declared operations.
func (op Operation) Valid() bool {
	switch op {
	case OpInit, OpUnlockSuccess, OpUnlockFailure, OpStore, OpGet, OpDelete, OpRotate:
		return true
	default:
		return false
	}
}

// Outcome is the result recorded for an operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Valid reports whether o is SUCCESS or FAILURE.
func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// AuditEntry is one line of the audit log.
//
// Sequence numbers start at 1 and have no gaps. ChainHash is the hex SHA-256
// of the previous entry's hash followed by this entry's fields; the first
// entry chains from the genesis value.
type AuditEntry struct {
	Seq        uint64    `json:"seq"`
	Timestamp  time.Time `json:"ts"`
	Operation  Operation `json:"op"`
	Credential string    `json:"credential"`
	Outcome    Outcome   `json:"outcome"`
	ChainHash  string    `json:"hash"`
}
