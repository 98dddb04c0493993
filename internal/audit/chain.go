package audit

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MKhiriev/credvault/models"
)

// GenesisHash is the chain value the first entry links to.
var GenesisHash = strings.Repeat("0", sha256.Size*2)

// chainHash computes hex(sha256(prev|seq|ts|op|credential|outcome)).
// The timestamp is hashed in its UTC RFC 3339 form with nanoseconds, which
// is exactly what survives a JSON round trip.
func chainHash(prev string, e models.AuditEntry) string {
	var b strings.Builder
	b.WriteString(prev)
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(e.Seq, 10))
	b.WriteByte('|')
	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')
	b.WriteString(string(e.Operation))
	b.WriteByte('|')
	b.WriteString(e.Credential)
	b.WriteByte('|')
	b.WriteString(string(e.Outcome))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// jsonText returns s as encoding/json writes it: every byte that is not
// part of a valid UTF-8 sequence becomes U+FFFD. Hashing this form keeps
// the chain verifiable after the entry is read back from the log.
func jsonText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
