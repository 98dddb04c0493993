package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrTamperedLog is the sentinel every *TamperError unwraps to.
	ErrTamperedLog = errors.New("audit log has been tampered with")

	// ErrInvalidEntry is returned by Append for entries with an unknown
	// operation or outcome.
	ErrInvalidEntry = errors.New("invalid audit entry")

	// ErrInvalidRange is returned by ReadRange when from is zero or greater
	// than to.
	ErrInvalidRange = errors.New("invalid sequence range")
)

// TamperError reports the first entry at which the hash chain no longer
// verifies. Entries before Seq are intact.
type TamperError struct {
	Seq    uint64
	Reason string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("%s: sequence %d: %s", ErrTamperedLog, e.Seq, e.Reason)
}

// Unwrap lets errors.Is(err, ErrTamperedLog) match.
func (e *TamperError) Unwrap() error {
	return ErrTamperedLog
}
