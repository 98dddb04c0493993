// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package audit implements the append-only, hash-chained audit log stored
// next to a vault.
//
// Each line of audit.log is one JSON object. Its "hash" field commits to the
// previous line's hash and to this line's fields, so editing, removing or
// reordering any past entry breaks verification from that entry onwards.
package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

//go:generate mockgen -source=log.go -destination=../mock/audit_log_mock.go -package=mock

// Log is the audit trail of one vault. Append is the only write primitive;
// there is no update or delete.
type Log interface {
	// Append assigns the next sequence number and chain hash to entry,
	// writes it durably and returns the completed entry. A zero Timestamp
	// is replaced with the current time.
	Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)

	// Verify recomputes the chain from the genesis value. The first
	// mismatch is reported as *TamperError.
	Verify(ctx context.Context) error

	// ReadRange returns the entries with from <= seq <= to in log order.
	// A zero to reads through the end of the log. Hashes are not checked.
	ReadRange(ctx context.Context, from, to uint64) ([]models.AuditEntry, error)

	// Head returns the newest entry and false if the log is empty.
	Head(ctx context.Context) (models.AuditEntry, bool, error)

	// Tail returns up to n of the newest entries, oldest first.
	Tail(ctx context.Context, n int) ([]models.AuditEntry, error)
}

const tailChunkSize = 4096

// FileLog is the JSON-lines implementation of [Log].
//
// FileLog does not lock the file across processes. Callers serialise
// Append through the vault's exclusive lock, which is what keeps sequence
// numbers gapless between processes. Within one process appendMu
// serialises Append and mu keeps readers off a line that is being written.
type FileLog struct {
	path   string
	logger *logger.Logger
	now    func() time.Time

	appendMu sync.Mutex
	mu       sync.RWMutex
}

// NewFileLog constructs a [Log] backed by the file at path. The file is
// created on first Append with mode 0600.
func NewFileLog(path string, log *logger.Logger) *FileLog {
	if log == nil {
		log = logger.Nop()
	}
	return &FileLog{
		path:   path,
		logger: log,
		now:    time.Now,
	}
}

// Append implements [Log].
func (l *FileLog) Append(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if !entry.Operation.Valid() || !entry.Outcome.Valid() {
		return models.AuditEntry{}, fmt.Errorf("%w: op=%q outcome=%q", ErrInvalidEntry, entry.Operation, entry.Outcome)
	}
	if err := ctx.Err(); err != nil {
		return models.AuditEntry{}, err
	}

	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	head, ok, err := l.Head(ctx)
	if err != nil {
		l.logger.Err(err).
			Str("func", "FileLog.Append").
			Str("path", l.path).
			Msg("cannot read audit log head")
		return models.AuditEntry{}, err
	}

	prev, seq := GenesisHash, uint64(1)
	if ok {
		prev, seq = head.ChainHash, head.Seq+1
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	entry.Credential = jsonText(entry.Credential)
	entry.Seq = seq
	entry.ChainHash = chainHash(prev, entry)

	line, err := json.Marshal(entry)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("stat audit log: %w", err)
	}

	if err := writeAndSync(f, line); err != nil {
		// Leave no torn line behind; a partial write would otherwise
		// read back as tampering.
		if truncErr := f.Truncate(info.Size()); truncErr != nil {
			err = errors.Join(err, truncErr)
		}
		l.logger.Err(err).
			Str("func", "FileLog.Append").
			Str("path", l.path).
			Uint64("seq", seq).
			Msg("failed to append audit entry")
		return models.AuditEntry{}, fmt.Errorf("write audit log: %w", err)
	}

	l.logger.Debug().
		Uint64("seq", entry.Seq).
		Str("operation", string(entry.Operation)).
		Str("credential", entry.Credential).
		Str("outcome", string(entry.Outcome)).
		Msg("audit entry appended")
	return entry, nil
}

func writeAndSync(f *os.File, line []byte) error {
	if _, err := f.Write(line); err != nil {
		return err
	}
	return f.Sync()
}

// Verify implements [Log]. A missing file is an empty, valid log.
func (l *FileLog) Verify(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	prev, expected := GenesisHash, uint64(1)
	err = scanLines(ctx, f, func(line []byte) error {
		var entry models.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return &TamperError{Seq: expected, Reason: "entry is not valid JSON"}
		}
		if entry.Seq != expected {
			return &TamperError{Seq: expected, Reason: fmt.Sprintf("found sequence %d", entry.Seq)}
		}
		if !entry.Operation.Valid() || !entry.Outcome.Valid() {
			return &TamperError{Seq: expected, Reason: "unknown operation or outcome"}
		}
		if !hashEqual(chainHash(prev, entry), entry.ChainHash) {
			return &TamperError{Seq: expected, Reason: "chain hash mismatch"}
		}
		prev = entry.ChainHash
		expected++
		return nil
	})
	if errors.Is(err, errTornLine) {
		err = &TamperError{Seq: expected, Reason: "final line is incomplete"}
	}
	if err != nil {
		l.logger.Warn().Err(err).
			Str("func", "FileLog.Verify").
			Str("path", l.path).
			Msg("audit log failed verification")
		return err
	}
	return nil
}

// ReadRange implements [Log].
func (l *FileLog) ReadRange(ctx context.Context, from, to uint64) ([]models.AuditEntry, error) {
	if from == 0 || (to != 0 && to < from) {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, from, to)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var out []models.AuditEntry
	errStop := errors.New("stop")
	err = scanLines(ctx, f, func(line []byte) error {
		var entry models.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("decode audit entry: %w", err)
		}
		if to != 0 && entry.Seq > to {
			return errStop
		}
		if entry.Seq >= from {
			out = append(out, entry)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

// Head implements [Log].
func (l *FileLog) Head(ctx context.Context) (models.AuditEntry, bool, error) {
	entries, err := l.Tail(ctx, 1)
	if err != nil || len(entries) == 0 {
		return models.AuditEntry{}, false, err
	}
	return entries[0], true, nil
}

// Tail implements [Log]. It reads the file backwards, so its cost depends
// on n rather than on the length of the log.
func (l *FileLog) Tail(ctx context.Context, n int) ([]models.AuditEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	return readTail(f, info.Size(), n)
}

var errTornLine = errors.New("incomplete final line")

// scanLines calls fn for every complete line. A trailing fragment without
// a newline is reported as errTornLine.
func scanLines(ctx context.Context, r io.Reader, fn func(line []byte) error) error {
	br := bufio.NewReader(r)
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		line, err := br.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return errTornLine
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}
		if err := fn(bytes.TrimSuffix(line, []byte{'\n'})); err != nil {
			return err
		}
	}
}

// readTail decodes the last n lines of a file of the given size.
func readTail(f io.ReaderAt, size int64, n int) ([]models.AuditEntry, error) {
	if size == 0 {
		return nil, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if last[0] != '\n' {
		return nil, &TamperError{Reason: "final line is incomplete"}
	}

	var tail []byte
	pos := size
	for pos > 0 && bytes.Count(tail, []byte{'\n'}) <= n {
		step := min(int64(tailChunkSize), pos)
		pos -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read audit log: %w", err)
		}
		tail = append(chunk, tail...)
	}

	lines := bytes.Split(bytes.TrimSuffix(tail, []byte{'\n'}), []byte{'\n'})
	if pos > 0 {
		// The first piece may start mid-line.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	out := make([]models.AuditEntry, 0, len(lines))
	for _, line := range lines {
		var entry models.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, &TamperError{Seq: entry.Seq, Reason: "entry is not valid JSON"}
		}
		out = append(out, entry)
	}
	return out, nil
}
