package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

func newTestLog(t *testing.T) *FileLog {
	t.Helper()
	l := NewFileLog(filepath.Join(t.TempDir(), "audit.log"), logger.Nop())
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return l
}

func appendEntries(t *testing.T, l *FileLog, n int) []models.AuditEntry {
	t.Helper()
	ops := []models.Operation{models.OpInit, models.OpUnlockSuccess, models.OpStore, models.OpGet, models.OpDelete}
	out := make([]models.AuditEntry, 0, n)
	for i := range n {
		e, err := l.Append(context.Background(), models.AuditEntry{
			Operation:  ops[i%len(ops)],
			Credential: "cred",
			Outcome:    models.OutcomeSuccess,
		})
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

func TestAppend_ChainsFromGenesis(t *testing.T) {
	l := newTestLog(t)
	entries := appendEntries(t, l, 3)

	prev := GenesisHash
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.Equal(t, chainHash(prev, e), e.ChainHash)
		assert.Len(t, e.ChainHash, 64)
		prev = e.ChainHash
	}

	info, err := os.Stat(l.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, l.Verify(context.Background()))
}

func TestAppend_WireFormat(t *testing.T) {
	l := newTestLog(t)
	_, err := l.Append(context.Background(), models.AuditEntry{
		Operation: models.OpUnlockFailure,
		Outcome:   models.OutcomeFailure,
	})
	require.NoError(t, err)

	lines := readLines(t, l.path)
	require.Len(t, lines, 1)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &raw))
	assert.Equal(t, float64(1), raw["seq"])
	assert.Equal(t, "UNLOCK_FAILURE", raw["op"])
	assert.Equal(t, "", raw["credential"])
	assert.Equal(t, "FAILURE", raw["outcome"])
	assert.Contains(t, raw, "ts")
	assert.Contains(t, raw, "hash")
}

func TestAppend_InvalidUTF8CredentialStaysVerifiable(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)
	appendEntries(t, l, 2)

	e, err := l.Append(ctx, models.AuditEntry{
		Operation:  models.OpGet,
		Credential: "gh\xff\xfe\ufffd",
		Outcome:    models.OutcomeFailure,
	})
	require.NoError(t, err)
	assert.Equal(t, "gh\ufffd\ufffd\ufffd", e.Credential)

	require.NoError(t, l.Verify(ctx))

	got, err := l.ReadRange(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.Credential, got[0].Credential)
	assert.Equal(t, e.ChainHash, got[0].ChainHash)
}

func TestJSONText_MatchesEncodingJSON(t *testing.T) {
	for _, s := range []string{"plain", "", "gh\xff", "\xff\xfe", "a\xe2\x82", "\ufffd\xff", "ok\u00e9"} {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		var decoded string
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, decoded, jsonText(s), "input %q", s)
	}
}

func TestAppend_ConcurrentGoroutinesStayGapless(t *testing.T) {
	ctx := context.Background()
	l := NewFileLog(filepath.Join(t.TempDir(), "audit.log"), logger.Nop())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				_, err := l.Append(ctx, models.AuditEntry{Operation: models.OpGet, Credential: "gh", Outcome: models.OutcomeSuccess})
				assert.NoError(t, err)
				_, _, err = l.Head(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, l.Verify(ctx))
	head, ok, err := l.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(80), head.Seq)
}

func TestAppend_RejectsInvalidEntry(t *testing.T) {
	l := newTestLog(t)
	_, err := l.Append(context.Background(), models.AuditEntry{Operation: "LIST", Outcome: models.OutcomeSuccess})
	require.ErrorIs(t, err, ErrInvalidEntry)
}

func TestAppend_ContinuesAcrossInstances(t *testing.T) {
	l := newTestLog(t)
	appendEntries(t, l, 2)

	reopened := NewFileLog(l.path, logger.Nop())
	e, err := reopened.Append(context.Background(), models.AuditEntry{Operation: models.OpGet, Credential: "gh", Outcome: models.OutcomeFailure})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), e.Seq)
	require.NoError(t, reopened.Verify(context.Background()))
}

func TestVerify_EmptyOrMissingLogIsValid(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Verify(context.Background()))
}

func TestVerify_DetectsTampering(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(lines []string) []string
		wantSeq uint64
	}{
		{
			name: "edited credential",
			mutate: func(lines []string) []string {
				lines[2] = strings.Replace(lines[2], `"credential":"cred"`, `"credential":"other"`, 1)
				return lines
			},
			wantSeq: 3,
		},
		{
			name: "edited outcome",
			mutate: func(lines []string) []string {
				lines[1] = strings.Replace(lines[1], `"SUCCESS"`, `"FAILURE"`, 1)
				return lines
			},
			wantSeq: 2,
		},
		{
			name: "removed entry",
			mutate: func(lines []string) []string {
				return append(lines[:1], lines[2:]...)
			},
			wantSeq: 2,
		},
		{
			name: "reordered entries",
			mutate: func(lines []string) []string {
				lines[3], lines[4] = lines[4], lines[3]
				return lines
			},
			wantSeq: 4,
		},
		{
			name: "garbage line",
			mutate: func(lines []string) []string {
				lines[0] = "not json"
				return lines
			},
			wantSeq: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLog(t)
			appendEntries(t, l, 5)
			writeLines(t, l.path, tt.mutate(readLines(t, l.path)))

			err := l.Verify(context.Background())
			require.ErrorIs(t, err, ErrTamperedLog)

			var tamper *TamperError
			require.ErrorAs(t, err, &tamper)
			assert.Equal(t, tt.wantSeq, tamper.Seq)
		})
	}
}

func TestVerify_TornFinalLine(t *testing.T) {
	l := newTestLog(t)
	appendEntries(t, l, 2)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"seq":3,"ts":`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var tamper *TamperError
	require.ErrorAs(t, l.Verify(context.Background()), &tamper)
	assert.Equal(t, uint64(3), tamper.Seq)

	_, err = l.Append(context.Background(), models.AuditEntry{Operation: models.OpGet, Outcome: models.OutcomeSuccess})
	require.ErrorIs(t, err, ErrTamperedLog, "append must refuse to extend a torn log")
}

func TestReadRange(t *testing.T) {
	l := newTestLog(t)
	appendEntries(t, l, 6)
	ctx := context.Background()

	got, err := l.ReadRange(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(2), got[0].Seq)
	assert.Equal(t, uint64(4), got[2].Seq)

	got, err = l.ReadRange(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(6), got[1].Seq)

	_, err = l.ReadRange(ctx, 0, 3)
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = l.ReadRange(ctx, 4, 3)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestHeadAndTail(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	_, ok, err := l.Head(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := appendEntries(t, l, 4)

	head, ok, err := l.Head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries[3], head)

	tail, err := l.Tail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, entries[2:], tail)

	tail, err = l.Tail(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, tail)
}

func TestReadTail_SpansChunks(t *testing.T) {
	l := newTestLog(t)
	long := strings.Repeat("x", 200)
	var want []models.AuditEntry
	for range 60 {
		e, err := l.Append(context.Background(), models.AuditEntry{
			Operation:  models.OpStore,
			Credential: long,
			Outcome:    models.OutcomeSuccess,
		})
		require.NoError(t, err)
		want = append(want, e)
	}

	data, err := os.ReadFile(l.path)
	require.NoError(t, err)
	require.Greater(t, len(data), 3*tailChunkSize)

	got, err := readTail(bytes.NewReader(data), int64(len(data)), 25)
	require.NoError(t, err)
	assert.Equal(t, want[35:], got)
}
