// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveFields = map[string]struct{}{
	"secret":     {},
	"passphrase": {},
	"password":   {},
	"token":      {},
	"dek":        {},
	"kek":        {},
	"root_key":   {},
	"plaintext":  {},
}

// redactingWriter rewrites each zerolog JSON line, replacing the value of
// any sensitive key with a placeholder before passing it on.
type redactingWriter struct {
	out io.Writer
}

// NewRedactingWriter wraps w. Lines that are not JSON objects are passed
// through untouched.
func NewRedactingWriter(w io.Writer) io.Writer {
	return &redactingWriter{out: w}
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	var event map[string]any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		return w.out.Write(p)
	}
	if !redactValue(event) {
		return w.out.Write(p)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(event); err != nil {
		return 0, err
	}
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	// zerolog checks n against len(p).
	return len(p), nil
}

// redactValue walks objects and arrays at any depth and reports whether
// anything was replaced.
func redactValue(v any) bool {
	changed := false
	switch v := v.(type) {
	case map[string]any:
		for key, value := range v {
			if _, ok := sensitiveFields[strings.ToLower(key)]; ok {
				v[key] = redacted
				changed = true
				continue
			}
			if redactValue(value) {
				changed = true
			}
		}
	case []any:
		for _, item := range v {
			if redactValue(item) {
				changed = true
			}
		}
	}
	return changed
}
