package registry

import (
	"bytes"
	"strings"
	"time"

	"github.com/madc/lnk/internal/log"
)

// TimeLayout is the persisted timestamp format: ISO-8601 in UTC with
// millisecond precision, e.g. "2024-01-01T00:00:00.000Z".
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Codec converts between the persisted tab-separated text format and an
// in-memory Registry. The format is one record per line:
//
//	<id>\t<url>\t<updatedAt>\t<comment>
//
// Blank lines and lines starting with '#' are skipped. This is a stable
// on-disk contract and must remain byte-compatible.
type Codec struct {
	// Now supplies the defaultToNow policy: it stamps records whose
	// persisted timestamp is missing or unparsable.
	Now func() time.Time
}

// NewCodec returns a Codec using the wall clock.
func NewCodec() *Codec {
	return &Codec{Now: time.Now}
}

// Parse rebuilds a Registry from persisted bytes. It is a best-effort
// line filter: a malformed line (bad id, non-absolute url) is dropped,
// never an error. When the same id appears more than once the later
// occurrence wins. An unparsable timestamp is replaced with Now().
func (c *Codec) Parse(data []byte) Registry {
	reg := make(Registry)

	text := strings.TrimSpace(string(data))
	if text == "" {
		return reg
	}

	for _, line := range strings.Split(text, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "\t", 4)
		field := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}

		id := field(0)
		rawURL := field(1)
		if !IsValidID(id) || !IsValidURL(rawURL) {
			log.Debug(log.CatCodec, "dropping malformed line", "id", id, "url", rawURL)
			continue
		}

		updatedAt, err := time.Parse(time.RFC3339, field(2))
		if err != nil {
			log.Debug(log.CatCodec, "unparsable timestamp, defaulting to now", "id", id)
			updatedAt = c.Now()
		}

		reg[id] = LinkRecord{
			URL:       rawURL,
			UpdatedAt: updatedAt,
			Comment:   field(3),
		}
	}

	return reg
}

// Serialize renders a Registry in canonical order, one line per entry,
// no trailing newline. Entries that violate the format invariants
// (invalid id, non-absolute url) are skipped rather than emitted, so
// the output always re-parses to the same registry. Comments are
// flattened to a single line since tab and newline are the delimiters,
// and edge whitespace is trimmed from fields to match what Parse keeps.
func (c *Codec) Serialize(reg Registry) []byte {
	lines := make([]string, 0, len(reg))

	for _, id := range reg.SortedIDs() {
		rec := reg[id]
		rawURL := strings.TrimSpace(rec.URL)
		if !IsValidID(id) || !IsValidURL(rawURL) {
			continue
		}

		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = c.Now()
		}

		lines = append(lines, strings.Join([]string{
			id,
			rawURL,
			updatedAt.UTC().Format(TimeLayout),
			flatten(rec.Comment),
		}, "\t"))
	}

	return []byte(strings.Join(lines, "\n"))
}

// flatten replaces the format's delimiter characters in free text with
// spaces and strips edge whitespace, so a comment can never break the
// line structure and always survives the field trimming done by Parse.
func flatten(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "\t\n\r") {
		return s
	}
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '\t', '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
