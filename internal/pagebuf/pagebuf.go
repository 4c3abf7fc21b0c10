// Package pagebuf turns single-byte reads at arbitrary offsets into reads of
// fixed-size pages, caching every page after its first load.
package pagebuf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultPageSize is the size of every page except the last one.
const DefaultPageSize = 8192

// ErrOutOfRange is returned for offsets outside the file. It wraps io.EOF.
var ErrOutOfRange = fmt.Errorf("pagebuf: offset out of range: %w", io.EOF)

var errClosed = errors.New("pagebuf: buffer closed")

// Buffer is a demand-paged, never-evicting cache over a read-only file.
// It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	file     *os.File
	pageSize int
	size     int64
	sized    bool
	pages    [][]byte
	loaded   int
}

// New wraps f. A non-positive pageSize selects DefaultPageSize.
func New(f *os.File, pageSize int) *Buffer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Buffer{file: f, pageSize: pageSize}
}

// PageSize returns the page size in bytes.
func (b *Buffer) PageSize() int {
	return b.pageSize
}

// Size returns the file length. It is determined on first use and then fixed.
func (b *Buffer) Size() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizeLocked()
}

func (b *Buffer) sizeLocked() (int64, error) {
	if b.sized {
		return b.size, nil
	}
	if b.file == nil {
		return 0, errClosed
	}
	info, err := b.file.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size == 0 && !info.Mode().IsRegular() {
		// Devices and some pseudo files only report a length after seeking.
		end, err := b.file.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		size = end
	}
	b.size = size
	b.sized = true
	return size, nil
}

// Byte returns the byte at off, faulting in its page when needed.
func (b *Buffer) Byte(off int64) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	page, err := b.pageLocked(off)
	if err != nil {
		return 0, err
	}
	return page[off%int64(b.pageSize)], nil
}

// ReadAt fills p from the cached pages starting at off.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrOutOfRange
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for n < len(p) {
		page, err := b.pageLocked(off)
		if err != nil {
			if errors.Is(err, ErrOutOfRange) {
				return n, io.EOF
			}
			return n, err
		}
		copied := copy(p[n:], page[off%int64(b.pageSize):])
		n += copied
		off += int64(copied)
	}
	return n, nil
}

// LoadedPages reports how many pages are cached.
func (b *Buffer) LoadedPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Close releases the cached pages and closes the file.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages = nil
	b.loaded = 0
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}

func (b *Buffer) pageLocked(off int64) ([]byte, error) {
	size, err := b.sizeLocked()
	if err != nil {
		return nil, err
	}
	if off < 0 || off >= size {
		return nil, ErrOutOfRange
	}

	idx := int(off / int64(b.pageSize))
	if idx < len(b.pages) && b.pages[idx] != nil {
		return b.pages[idx], nil
	}
	if b.file == nil {
		return nil, errClosed
	}

	length := b.pageLen(idx, size)
	buf := make([]byte, length)
	n, err := b.file.ReadAt(buf, int64(idx)*int64(b.pageSize))
	if n < length {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("pagebuf: read page %d: %w", idx, err)
	}

	if idx >= len(b.pages) {
		grown := make([][]byte, idx+1)
		copy(grown, b.pages)
		b.pages = grown
	}
	b.pages[idx] = buf
	b.loaded++
	return buf, nil
}

func (b *Buffer) pageLen(idx int, size int64) int {
	lastPage := int((size - 1) / int64(b.pageSize))
	if idx < lastPage {
		return b.pageSize
	}
	rem := int(size % int64(b.pageSize))
	if rem == 0 {
		return b.pageSize
	}
	return rem
}
