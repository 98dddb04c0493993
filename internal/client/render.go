package client

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"

	"github.com/MKhiriev/credvault/models"
)

const timeLayout = "2006-01-02 15:04"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func renderCredentials(list []models.CredentialMetadata, now time.Time) string {
	headers := []string{"NAME", "TYPE", "SCOPE", "TAGS", "CREATED", "LAST USED", "USES", "STATUS"}
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		rows = append(rows, []string{
			sanitize(m.Name),
			m.Type.String(),
			sanitize(m.Scope.String()),
			sanitize(strings.Join(m.Tags, ",")),
			formatTime(m.CreatedAt),
			formatTime(m.LastAccessedAt),
			fmt.Sprintf("%d", m.AccessCount),
			credentialStatus(m, now),
		})
	}
	return renderTable(headers, rows)
}

func credentialStatus(m models.CredentialMetadata, now time.Time) string {
	switch {
	case m.IsExpired(now):
		return failureStyle.Render("expired")
	case m.NeedsRotation(now):
		return warningStyle.Render("rotate")
	case !m.ExpiresAt.IsZero():
		return faintStyle.Render("expires " + formatTime(m.ExpiresAt))
	default:
		return ""
	}
}

func renderAudit(entries []models.AuditEntry) string {
	headers := []string{"SEQ", "TIME", "OPERATION", "CREDENTIAL", "OUTCOME"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := string(e.Outcome)
		if e.Outcome == models.OutcomeFailure {
			outcome = failureStyle.Render(outcome)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Seq),
			e.Timestamp.Local().Format(time.RFC3339),
			string(e.Operation),
			sanitize(e.Credential),
			outcome,
		})
	}
	return renderTable(headers, rows)
}

// renderTable lays rows out under a header with column separators and no
// outer frame.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// sanitize makes caller-controlled text safe to print: escape sequences
// are removed and control or bidi-override characters become '?'.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Bidi_Control, r) {
			return '?'
		}
		return r
	}, ansi.Strip(s))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
