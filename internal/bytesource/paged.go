package bytesource

import (
	"errors"
	"io"
	"os"

	"github.com/kk-code-lab/rview/internal/debuglog"
	"github.com/kk-code-lab/rview/internal/pagebuf"
)

// Paged serves bytes through a pagebuf.Buffer.
type Paged struct {
	buf  *pagebuf.Buffer
	size int64
}

func newPaged(f *os.File, pageSize int) (*Paged, error) {
	buf := pagebuf.New(f, pageSize)
	size, err := buf.Size()
	if err != nil {
		_ = buf.Close()
		return nil, &OpenError{Path: f.Name(), Op: "size", Err: err}
	}
	return &Paged{buf: buf, size: size}, nil
}

func (p *Paged) MaxOffset() int64 {
	return p.size
}

func (p *Paged) Byte(off int64) (byte, bool) {
	if off < 0 || off >= p.size {
		return 0, false
	}
	b, err := p.buf.Byte(off)
	if err != nil {
		debuglog.Printf("bytesource: read offset %d: %v", off, err)
		return 0, false
	}
	return b, true
}

// readRange copies page by page under one lock per call instead of one per
// byte. It stops at the first page that fails to load.
func (p *Paged) readRange(off int64, n int) []byte {
	out := make([]byte, n)
	read, err := p.buf.ReadAt(out, off)
	if err != nil && !errors.Is(err, io.EOF) {
		debuglog.Printf("bytesource: read range %d+%d: %v", off, n, err)
	}
	if read == 0 {
		return nil
	}
	return out[:read]
}

// Buffer exposes the underlying page cache.
func (p *Paged) Buffer() *pagebuf.Buffer {
	return p.buf
}

func (p *Paged) Close() error {
	return p.buf.Close()
}
