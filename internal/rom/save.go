package rom

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// SaveRAM is the cartridge RAM buffer of one loaded title.
type SaveRAM struct {
	path     string
	data     []byte
	dirty    bool
	released bool
}

// SavePath returns the .sav file used for the image named romName.
func SavePath(dir, romName string) string {
	base := filepath.Base(romName)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".sav")
}

// NewSaveRAM allocates size bytes of save RAM backed by path. If the file
// exists its contents pre-fill the buffer; a shorter file fills only the
// leading bytes. An empty path disables persistence.
func NewSaveRAM(path string, size int) (*SaveRAM, error) {
	s := &SaveRAM{path: path, data: make([]byte, size)}
	if path == "" || size == 0 {
		return s, nil
	}

	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save %s: %w", path, err)
	}
	n := copy(s.data, existing)
	log.Printf("[SAVE] Restored %d bytes from %s", n, path)
	return s, nil
}

// Size returns the buffer length.
func (s *SaveRAM) Size() int {
	return len(s.data)
}

// Path returns the backing file.
func (s *SaveRAM) Path() string {
	return s.path
}

// At returns the byte at addr, or 0xFF outside the buffer.
func (s *SaveRAM) At(addr uint32) uint8 {
	if int64(addr) >= int64(len(s.data)) {
		return 0xFF
	}
	return s.data[addr]
}

// Set stores value at addr. Writes outside the buffer are dropped.
func (s *SaveRAM) Set(addr uint32, value uint8) {
	if int64(addr) >= int64(len(s.data)) {
		return
	}
	if s.data[addr] != value {
		s.data[addr] = value
		s.dirty = true
	}
}

// Dirty reports whether the buffer changed since it was loaded or flushed.
func (s *SaveRAM) Dirty() bool {
	return s.dirty
}

// Flush writes the buffer to its backing file.
func (s *SaveRAM) Flush() error {
	if s.released || s.path == "" || len(s.data) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	if err := os.WriteFile(s.path, s.data, 0644); err != nil {
		return fmt.Errorf("write save %s: %w", s.path, err)
	}
	s.dirty = false
	log.Printf("[SAVE] Wrote %d bytes to %s", len(s.data), s.path)
	return nil
}

// Release drops the buffer without writing it. It reports false if it was
// already released.
func (s *SaveRAM) Release() bool {
	if s.released {
		return false
	}
	s.released = true
	s.data = nil
	return true
}
