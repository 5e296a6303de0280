// Package store mediates between an external file handle and the
// registry codec. Every mutation is a single-shot read-modify-write:
// read the current bytes, parse, apply the change, serialize, replace.
//
// There is no conflict detection between the read and the write. The
// registry is maintained under a single-editor assumption; a second
// process editing the same file inside that window loses its changes.
package store

import (
	"errors"
	"io/fs"
	"os"
)

// Handle grants read and replace access to the bytes backing a
// registry. A nil Handle means no file is bound: mutations against it
// are silently dropped and only in-memory state reflects them.
type Handle interface {
	// Name identifies the handle for log and error messages.
	Name() string
	// ReadBytes returns the current contents.
	ReadBytes() ([]byte, error)
	// ReplaceBytes atomically replaces all previous contents.
	ReplaceBytes(data []byte) error
}

// FileHandle is a Handle over a path on the local filesystem.
type FileHandle struct {
	path string
}

// NewFileHandle returns a handle for the registry file at path. The
// file does not have to exist yet; it is created on the first write.
func NewFileHandle(path string) *FileHandle {
	return &FileHandle{path: path}
}

// Name returns the underlying path.
func (h *FileHandle) Name() string {
	return h.path
}

// ReadBytes reads the whole file. A file that does not exist yet reads
// as empty, so the first mutation against a fresh path starts from an
// empty registry instead of failing.
func (h *FileHandle) ReadBytes() ([]byte, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// ReplaceBytes truncates the file and writes data as one operation.
func (h *FileHandle) ReplaceBytes(data []byte) error {
	return os.WriteFile(h.path, data, 0o644)
}
