package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/madc/lnk/internal/registry"
)

// tempHandle binds a handle to a fresh file under t.TempDir.
func tempHandle(t *testing.T) *FileHandle {
	t.Helper()
	return NewFileHandle(filepath.Join(t.TempDir(), "_links.txt"))
}

// fixedStore pins the codec clock so stamped timestamps are stable.
func fixedStore(t *testing.T) (*Store, time.Time) {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewWithCodec(&registry.Codec{Now: func() time.Time { return now }}), now
}

func TestUpsert_PersistsRecord(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)

	err := s.Upsert(h, "shop", registry.LinkRecord{URL: "https://example.com/store", Comment: "My shop"})
	require.NoError(t, err)

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 1)
	rec := reg["shop"]
	require.Equal(t, "https://example.com/store", rec.URL)
	require.Equal(t, "My shop", rec.Comment)
	require.True(t, rec.UpdatedAt.Equal(now), "zero UpdatedAt is stamped with the codec clock")
}

func TestUpsert_Idempotent(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)
	rec := registry.LinkRecord{URL: "https://example.com/", UpdatedAt: now}

	require.NoError(t, s.Upsert(h, "a", rec))
	first, err := h.ReadBytes()
	require.NoError(t, err)

	require.NoError(t, s.Upsert(h, "a", rec))
	second, err := h.ReadBytes()
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestUpsert_LastWriteWins(t *testing.T) {
	s, _ := fixedStore(t)
	h := tempHandle(t)

	// The second writer wins regardless of UpdatedAt ordering.
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(h, "a", registry.LinkRecord{URL: "https://first.example/", UpdatedAt: newer}))
	require.NoError(t, s.Upsert(h, "a", registry.LinkRecord{URL: "https://second.example/", UpdatedAt: older}))

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 1)
	require.Equal(t, "https://second.example/", reg["a"].URL)
}

func TestUpsert_NilHandleIsNoop(t *testing.T) {
	s, _ := fixedStore(t)

	err := s.Upsert(nil, "a", registry.LinkRecord{URL: "https://example.com/"})
	require.NoError(t, err)
}

func TestUpsert_RejectsInvalidID(t *testing.T) {
	s, _ := fixedStore(t)
	h := tempHandle(t)

	err := s.Upsert(h, "bad id", registry.LinkRecord{URL: "https://example.com/"})
	require.ErrorIs(t, err, registry.ErrInvalidID)

	// Nothing was written.
	_, statErr := os.Stat(h.Name())
	require.True(t, os.IsNotExist(statErr))
}

func TestUpsert_PreservesOtherRecords(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)

	require.NoError(t, s.Upsert(h, "a", registry.LinkRecord{URL: "https://a.example/", UpdatedAt: now}))
	require.NoError(t, s.Upsert(h, "b", registry.LinkRecord{URL: "https://b.example/", UpdatedAt: now}))

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 2)
}

func TestRemove_DeletesRecord(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)

	require.NoError(t, s.Upsert(h, "a", registry.LinkRecord{URL: "https://a.example/", UpdatedAt: now}))
	require.NoError(t, s.Upsert(h, "b", registry.LinkRecord{URL: "https://b.example/", UpdatedAt: now}))

	require.NoError(t, s.Remove(h, "a"))

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 1)
	require.NotContains(t, reg, "a")
}

func TestRemove_AbsentIDIsNoop(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)
	require.NoError(t, s.Upsert(h, "a", registry.LinkRecord{URL: "https://a.example/", UpdatedAt: now}))

	require.NoError(t, s.Remove(h, "doesnotexist"))

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 1)
}

func TestRemove_NilHandleIsNoop(t *testing.T) {
	s, _ := fixedStore(t)
	require.NoError(t, s.Remove(nil, "a"))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s, _ := fixedStore(t)
	h := tempHandle(t)

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Empty(t, reg)
}

func TestLoad_NilHandleIsEmpty(t *testing.T) {
	s, _ := fixedStore(t)

	reg, err := s.Load(nil)
	require.NoError(t, err)
	require.Empty(t, reg)
}

func TestImport_MergesAndOverwrites(t *testing.T) {
	s, now := fixedStore(t)
	h := tempHandle(t)
	require.NoError(t, s.Upsert(h, "keep", registry.LinkRecord{URL: "https://keep.example/", UpdatedAt: now}))
	require.NoError(t, s.Upsert(h, "both", registry.LinkRecord{URL: "https://old.example/", UpdatedAt: now}))

	err := s.Import(h, registry.Registry{
		"both": {URL: "https://new.example/", UpdatedAt: now},
		"add":  {URL: "https://add.example/", UpdatedAt: now},
	})
	require.NoError(t, err)

	reg, err := s.Load(h)
	require.NoError(t, err)
	require.Len(t, reg, 3)
	require.Equal(t, "https://new.example/", reg["both"].URL)
}

func TestNormalize_DropsMalformedAndSorts(t *testing.T) {
	s, _ := fixedStore(t)
	h := tempHandle(t)
	raw := "# header\n" +
		"link-10\thttps://j.example/\t2024-01-01T00:00:00.000Z\t\n" +
		"bad id\thttps://x.example/\t2024-01-01T00:00:00.000Z\t\n" +
		"link-2\thttps://b.example/\t2024-01-01T00:00:00.000Z\t"
	require.NoError(t, os.WriteFile(h.Name(), []byte(raw), 0o644))

	require.NoError(t, s.Normalize(h))

	out, err := h.ReadBytes()
	require.NoError(t, err)
	require.Equal(t,
		"link-2\thttps://b.example/\t2024-01-01T00:00:00.000Z\t\n"+
			"link-10\thttps://j.example/\t2024-01-01T00:00:00.000Z\t",
		string(out))
}

// failingHandle simulates a broken byte sink.
type failingHandle struct {
	readErr  error
	writeErr error
}

func (f *failingHandle) Name() string { return "failing" }

func (f *failingHandle) ReadBytes() ([]byte, error) {
	return nil, f.readErr
}

func (f *failingHandle) ReplaceBytes([]byte) error {
	return f.writeErr
}

func TestMutation_IOFailureIsWriteFailure(t *testing.T) {
	s, _ := fixedStore(t)
	rec := registry.LinkRecord{URL: "https://example.com/"}

	t.Run("read failure", func(t *testing.T) {
		h := &failingHandle{readErr: errors.New("disk gone")}
		require.ErrorIs(t, s.Upsert(h, "a", rec), ErrWriteFailure)
	})

	t.Run("write failure", func(t *testing.T) {
		h := &failingHandle{writeErr: errors.New("disk full")}
		require.ErrorIs(t, s.Upsert(h, "a", rec), ErrWriteFailure)
		require.ErrorIs(t, s.Remove(h, "a"), ErrWriteFailure)
	})
}

func TestDiff_MarksChangedLines(t *testing.T) {
	before := []byte("a\thttps://a.example/\t2024-01-01T00:00:00.000Z\t\nb\thttps://b.example/\t2024-01-01T00:00:00.000Z\t")
	after := []byte("a\thttps://a.example/\t2024-01-01T00:00:00.000Z\t\nc\thttps://c.example/\t2024-01-01T00:00:00.000Z\t")

	diff := Diff(before, after)

	require.Contains(t, diff, "-b\thttps://b.example/")
	require.Contains(t, diff, "+c\thttps://c.example/")
	require.Contains(t, diff, " a\thttps://a.example/")
}
