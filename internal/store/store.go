package store

import (
	"errors"
	"fmt"

	"github.com/madc/lnk/internal/log"
	"github.com/madc/lnk/internal/registry"
)

// ErrWriteFailure is returned when the underlying I/O of a mutation
// fails. The failure is reported to the caller; in-memory presentation
// state is never touched by this package.
var ErrWriteFailure = errors.New("registry write failed")

// Store owns no persistent state itself; it applies mutations to an
// external Handle through the registry codec.
type Store struct {
	codec *registry.Codec
}

// New returns a Store using the wall-clock codec.
func New() *Store {
	return &Store{codec: registry.NewCodec()}
}

// NewWithCodec returns a Store with an injected codec, used by tests to
// pin the clock.
func NewWithCodec(c *registry.Codec) *Store {
	return &Store{codec: c}
}

// Load reads and parses the registry behind h. A nil handle loads as an
// empty registry.
func (s *Store) Load(h Handle) (registry.Registry, error) {
	if h == nil {
		return registry.Registry{}, nil
	}
	data, err := h.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrWriteFailure, h.Name(), err)
	}
	return s.codec.Parse(data), nil
}

// Upsert creates or replaces the record for id. The last writer for an
// id always wins, independent of the previous UpdatedAt. A zero
// UpdatedAt on the record is stamped with the current time.
func (s *Store) Upsert(h Handle, id string, rec registry.LinkRecord) error {
	if h == nil {
		log.Debug(log.CatStore, "no file bound, dropping mutation", "id", id)
		return nil
	}
	if !registry.IsValidID(id) {
		return fmt.Errorf("upsert %q: %w", id, registry.ErrInvalidID)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.codec.Now()
	}

	return s.rewrite(h, func(working registry.Registry) {
		working[id] = rec
		log.Info(log.CatStore, "upsert", "id", id, "url", rec.URL)
	})
}

// Remove deletes the record for id. Removing an absent id is a no-op
// success.
func (s *Store) Remove(h Handle, id string) error {
	if h == nil {
		log.Debug(log.CatStore, "no file bound, dropping removal", "id", id)
		return nil
	}
	if !registry.IsValidID(id) {
		return fmt.Errorf("remove %q: %w", id, registry.ErrInvalidID)
	}

	return s.rewrite(h, func(working registry.Registry) {
		delete(working, id)
		log.Info(log.CatStore, "remove", "id", id)
	})
}

// Import merges every record of src into the registry behind h in a
// single read-modify-write. Imported entries overwrite existing ones
// with the same id.
func (s *Store) Import(h Handle, src registry.Registry) error {
	if h == nil {
		log.Debug(log.CatStore, "no file bound, dropping import", "count", len(src))
		return nil
	}

	return s.rewrite(h, func(working registry.Registry) {
		for id, rec := range src {
			working[id] = rec
		}
		log.Info(log.CatStore, "import", "count", len(src))
	})
}

// Normalize rewrites the file in canonical form: parsed then
// serialized, dropping malformed lines and restoring the sort order.
func (s *Store) Normalize(h Handle) error {
	if h == nil {
		return nil
	}
	return s.rewrite(h, func(registry.Registry) {})
}

// rewrite runs the read-modify-write protocol: read and parse the
// current bytes, let mutate change the working registry, then replace
// the file with the serialized result.
func (s *Store) rewrite(h Handle, mutate func(registry.Registry)) error {
	before, err := h.ReadBytes()
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrWriteFailure, h.Name(), err)
	}

	working := s.codec.Parse(before)
	mutate(working)

	after := s.codec.Serialize(working)
	if err := h.ReplaceBytes(after); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrWriteFailure, h.Name(), err)
	}

	log.Debug(log.CatStore, "rewrote registry", "file", h.Name(),
		"entries", len(working), "bytes", len(after))
	return nil
}
