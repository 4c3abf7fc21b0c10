package bytesource

import (
	"errors"
	"os"
)

var (
	errIsDirectory     = errors.New("is a directory")
	errMmapUnsupported = errors.New("mmap not supported on this platform")
	errTooLarge        = errors.New("file too large to map")
)

// Mapped serves bytes from a read-only memory map of the whole file.
type Mapped struct {
	data []byte
}

func newMapped(f *os.File, size int64) (*Mapped, error) {
	if size == 0 {
		return &Mapped{}, nil
	}
	if int64(int(size)) != size {
		return nil, errTooLarge
	}
	data, err := mmapFile(f, int(size))
	if err != nil {
		return nil, err
	}
	return &Mapped{data: data}, nil
}

func (m *Mapped) MaxOffset() int64 {
	return int64(len(m.data))
}

func (m *Mapped) Byte(off int64) (byte, bool) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, false
	}
	return m.data[off], true
}

// Close unmaps the file. The source must not be used afterwards.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return munmap(data)
}
