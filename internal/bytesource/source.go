// Package bytesource provides random-access byte reads into a file, backed
// either by a read-only memory map or by a demand-paged buffer.
package bytesource

import (
	"os"

	"github.com/kk-code-lab/rview/internal/debuglog"
)

// Source is a random-access view of one file as it was when opened.
type Source interface {
	// MaxOffset returns the number of addressable bytes.
	MaxOffset() int64
	// Byte returns the byte at off. ok is false past the end or when the
	// region could not be read.
	Byte(off int64) (b byte, ok bool)
	Close() error
}

// Kind identifies the access strategy behind a Source.
type Kind int

const (
	KindUnknown Kind = iota
	KindMapped
	KindPaged
)

func (k Kind) String() string {
	switch k {
	case KindMapped:
		return "mapped"
	case KindPaged:
		return "paged"
	default:
		return "unknown"
	}
}

// Options tunes Open.
type Options struct {
	// DisableMmap forces the paged strategy.
	DisableMmap bool
	// PageSize is used by the paged strategy; 0 selects the pagebuf default.
	PageSize int
}

// OpenError describes a failure to open or inspect the file.
type OpenError struct {
	Path string
	Op   string
	Err  error
}

func (e *OpenError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Open opens path read-only. A memory map is tried first; when mapping is
// disabled or fails the file is served through a paged buffer instead.
func Open(path string, opts Options) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Op: "open", Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Op: "stat", Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &OpenError{Path: path, Op: "open", Err: errIsDirectory}
	}

	if !opts.DisableMmap && info.Mode().IsRegular() {
		src, err := newMapped(f, info.Size())
		if err == nil {
			// The mapping stays valid after the descriptor is closed.
			_ = f.Close()
			return src, nil
		}
		debuglog.Printf("bytesource: mmap %s failed, using pages: %v", path, err)
	}

	return newPaged(f, opts.PageSize)
}

// Describe reports which strategy backs src.
func Describe(src Source) Kind {
	switch src.(type) {
	case *Mapped:
		return KindMapped
	case *Paged:
		return KindPaged
	default:
		return KindUnknown
	}
}

// ReadRange copies up to n bytes starting at off, stopping at the first byte
// that cannot be read.
func ReadRange(src Source, off int64, n int) []byte {
	if src == nil || n <= 0 || off < 0 {
		return nil
	}
	if remaining := src.MaxOffset() - off; remaining < int64(n) {
		if remaining <= 0 {
			return nil
		}
		n = int(remaining)
	}
	if paged, ok := src.(*Paged); ok {
		return paged.readRange(off, n)
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, ok := src.Byte(off + int64(i))
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}
