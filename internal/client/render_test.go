package client

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/credvault/models"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"A", "LONG HEADER"},
		[][]string{{"wide cell value", "x"}, {"b", "y"}},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "LONG HEADER")
	assert.Contains(t, lines[1], "┼")

	sep := lipgloss.Width(lines[2][:strings.Index(lines[2], "│")])
	for _, line := range []string{lines[0], lines[2], lines[3]} {
		assert.Equal(t, sep, lipgloss.Width(line[:strings.Index(line, "│")]), "line %q", line)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github", "github"},
		{"red\x1b[31malert\x1b[0m", "redalert"},
		{"two\nlines\r", "two?lines?"},
		{"tab\there", "tab?here"},
		{"abc\u202etxt.exe", "abc?txt.exe"},
		{"caf\u00e9", "caf\u00e9"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in), "input %q", tt.in)
	}
}

func TestRenderCredentials_StripsTerminalEscapes(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []models.CredentialMetadata{{
		Name:      "evil\x1b]0;pwned\x07name",
		Type:      models.CredentialTypeOther,
		Scope:     models.GlobalScope(),
		CreatedAt: now,
	}}

	out := renderCredentials(list, now)
	assert.NotContains(t, out, "\x1b]0;")
	assert.NotContains(t, out, "\x07")
	assert.Contains(t, out, "evilname")

	audit := renderAudit([]models.AuditEntry{{Seq: 1, Timestamp: now, Operation: models.OpGet, Credential: "a\x1b[2Jb", Outcome: models.OutcomeSuccess}})
	assert.NotContains(t, audit, "\x1b[2J")
	assert.Contains(t, audit, "ab")
}

func TestCredentialStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	expired := models.CredentialMetadata{ExpiresAt: now.Add(-time.Hour)}
	assert.Contains(t, credentialStatus(expired, now), "expired")

	due := models.CredentialMetadata{CreatedAt: now.Add(-48 * time.Hour), RotationInterval: 24 * time.Hour}
	assert.Contains(t, credentialStatus(due, now), "rotate")

	fine := models.CredentialMetadata{CreatedAt: now}
	assert.Equal(t, "", credentialStatus(fine, now))
}

func TestFormatTime_Zero(t *testing.T) {
	assert.Equal(t, "-", formatTime(time.Time{}))
}
