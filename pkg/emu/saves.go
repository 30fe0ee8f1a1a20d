package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash"
)

const saveFolder = "saves" // TODO make this configurable

// Save persists the 8 KiB EEPROM store, the only machine state kept
// across sessions. Files are keyed by the cartridge hash so each game
// keeps its own store.
type Save struct {
	path string

	dirty    []byte
	lastHash uint64
	written  time.Time
}

// NewSave returns the save slot for the given cartridge image.
func NewSave(cartridge []byte) (*Save, error) {
	if err := os.MkdirAll(saveFolder, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%016x.sav", xxhash.Sum64(cartridge))
	return &Save{path: filepath.Join(saveFolder, name)}, nil
}

// Load returns the persisted EEPROM image, or nil if none exists.
func (s *Save) Load() []byte {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	return data
}

// Update records the current store and writes it out at most once per
// second, and only when it changed.
func (s *Save) Update(data *[0x2000]uint8) {
	hash := xxhash.Sum64(data[:])
	if hash == s.lastHash && s.dirty == nil {
		return
	}

	if s.dirty == nil {
		s.dirty = make([]byte, len(data))
	}
	copy(s.dirty, data[:])
	s.lastHash = hash

	if time.Since(s.written) < time.Second {
		return
	}
	if err := s.write(s.dirty); err == nil {
		s.dirty = nil
		s.written = time.Now()
	}
}

// Flush writes the store out unconditionally.
func (s *Save) Flush(data *[0x2000]uint8) error {
	s.dirty = nil
	s.lastHash = xxhash.Sum64(data[:])
	s.written = time.Now()
	return s.write(data[:])
}

// write lands the image via a temporary file so a crash mid-write
// cannot corrupt the previous save.
func (s *Save) write(data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
