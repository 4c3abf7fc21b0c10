package bytesource

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/kk-code-lab/rview/internal/pagebuf"
)

func writeTestFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func openSource(t *testing.T, path string, opts Options) Source {
	t.Helper()
	src, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestMappedAndPagedAgree(t *testing.T) {
	size := pagebuf.DefaultPageSize*2 + 17
	path := writeTestFile(t, patternBytes(size))

	mapped := openSource(t, path, Options{})
	paged := openSource(t, path, Options{DisableMmap: true})

	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		if kind := Describe(mapped); kind != KindMapped {
			t.Fatalf("expected mapped source, got %v", kind)
		}
	}
	if kind := Describe(paged); kind != KindPaged {
		t.Fatalf("expected paged source, got %v", kind)
	}

	if mapped.MaxOffset() != paged.MaxOffset() {
		t.Fatalf("MaxOffset mismatch: mapped=%d paged=%d", mapped.MaxOffset(), paged.MaxOffset())
	}
	if mapped.MaxOffset() != int64(size) {
		t.Fatalf("MaxOffset returned %d, want %d", mapped.MaxOffset(), size)
	}

	for off := int64(0); off < mapped.MaxOffset(); off++ {
		mb, mok := mapped.Byte(off)
		pb, pok := paged.Byte(off)
		if !mok || !pok {
			t.Fatalf("Byte(%d) not readable: mapped=%v paged=%v", off, mok, pok)
		}
		if mb != pb {
			t.Fatalf("Byte(%d) mismatch: mapped=%d paged=%d", off, mb, pb)
		}
		if mb != byte(off%256) {
			t.Fatalf("Byte(%d) returned %d, want %d", off, mb, byte(off%256))
		}
	}
}

func TestByteAtEndIsUnavailable(t *testing.T) {
	path := writeTestFile(t, patternBytes(100))
	for _, opts := range []Options{{}, {DisableMmap: true, PageSize: 32}} {
		src := openSource(t, path, opts)
		if _, ok := src.Byte(src.MaxOffset()); ok {
			t.Fatalf("%v: Byte(MaxOffset) should report no data", Describe(src))
		}
		if _, ok := src.Byte(-1); ok {
			t.Fatalf("%v: Byte(-1) should report no data", Describe(src))
		}
	}
}

func TestEmptyFile(t *testing.T) {
	path := writeTestFile(t, nil)
	src := openSource(t, path, Options{})
	if src.MaxOffset() != 0 {
		t.Fatalf("MaxOffset returned %d, want 0", src.MaxOffset())
	}
	if _, ok := src.Byte(0); ok {
		t.Fatalf("Byte(0) on empty file should report no data")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *OpenError, got %T", err)
	}
	if openErr.Op != "open" {
		t.Fatalf("OpenError.Op = %q, want open", openErr.Op)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected error to wrap os.ErrNotExist: %v", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	if _, err := Open(t.TempDir(), Options{}); err == nil {
		t.Fatalf("expected error when opening a directory")
	}
}

func TestPagedSwallowsReadErrors(t *testing.T) {
	path := writeTestFile(t, patternBytes(4096))
	src := openSource(t, path, Options{DisableMmap: true, PageSize: 1024})
	if _, ok := src.Byte(5); !ok {
		t.Fatalf("Byte(5) should be readable before truncation")
	}
	if err := os.Truncate(path, 10); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, ok := src.Byte(2048); ok {
		t.Fatalf("expected unreadable byte after truncation")
	}
	// Cached pages keep serving the snapshot taken before truncation.
	if b, ok := src.Byte(5); !ok || b != 5 {
		t.Fatalf("Byte(5) = %d, %v; want 5, true", b, ok)
	}
}

func TestReadRange(t *testing.T) {
	path := writeTestFile(t, patternBytes(50))
	src := openSource(t, path, Options{DisableMmap: true, PageSize: 16})

	got := ReadRange(src, 40, 20)
	if len(got) != 10 {
		t.Fatalf("ReadRange returned %d bytes, want 10", len(got))
	}
	if got[0] != 40 || got[9] != 49 {
		t.Fatalf("ReadRange returned unexpected bytes %v", got)
	}
	if got := ReadRange(src, 50, 4); got != nil {
		t.Fatalf("ReadRange at end returned %v, want nil", got)
	}
}

func TestReadRangePagedCopiesWholePages(t *testing.T) {
	path := writeTestFile(t, patternBytes(100))
	src := openSource(t, path, Options{DisableMmap: true, PageSize: 16})
	paged, ok := src.(*Paged)
	if !ok {
		t.Fatalf("Open returned %T, want *Paged", src)
	}

	got := ReadRange(src, 10, 30)
	if len(got) != 30 {
		t.Fatalf("ReadRange returned %d bytes, want 30", len(got))
	}
	for i, b := range got {
		if b != byte(10+i) {
			t.Fatalf("ReadRange byte %d = %d, want %d", i, b, 10+i)
		}
	}
	if loaded := paged.Buffer().LoadedPages(); loaded != 3 {
		t.Fatalf("LoadedPages returned %d, want 3", loaded)
	}
}

func TestReadRangePagedStopsAtUnreadablePage(t *testing.T) {
	path := writeTestFile(t, patternBytes(64))
	src := openSource(t, path, Options{DisableMmap: true, PageSize: 16})
	if _, ok := src.Byte(0); !ok {
		t.Fatalf("Byte(0) should be readable before truncation")
	}
	if err := os.Truncate(path, 20); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	got := ReadRange(src, 4, 40)
	if len(got) != 12 {
		t.Fatalf("ReadRange returned %d bytes, want 12 from the cached page", len(got))
	}
	if got[0] != 4 || got[11] != 15 {
		t.Fatalf("ReadRange returned unexpected bytes %v", got)
	}
}

func TestKindString(t *testing.T) {
	if KindMapped.String() != "mapped" || KindPaged.String() != "paged" || KindUnknown.String() != "unknown" {
		t.Fatalf("unexpected Kind strings")
	}
}
