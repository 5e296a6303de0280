// Package registry defines the link registry data model and the text
// codec for its persisted tab-separated format.
package registry

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// LinkRecord is one registry entry: a destination URL, the time the
// entry last changed, and an optional free-text comment.
type LinkRecord struct {
	URL       string
	UpdatedAt time.Time
	Comment   string
}

// Registry maps a short id to its link record. Keys are unique and the
// map itself is unordered; SortedIDs defines the canonical
// serialization order.
type Registry map[string]LinkRecord

// SortedIDs returns the ids in canonical order: locale-aware,
// numeric-aware ascending, so "link-2" sorts before "link-10".
func (r Registry) SortedIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	// A collator is not safe for concurrent use, so build one per call.
	c := collate.New(language.English, collate.Numeric)
	c.SortStrings(ids)
	return ids
}
