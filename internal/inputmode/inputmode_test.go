package inputmode

import (
	"sync"
	"testing"

	"github.com/kk-code-lab/rview/internal/codepage"
)

type sliceSource []byte

func (s sliceSource) MaxOffset() int64 { return int64(len(s)) }

func (s sliceSource) Byte(off int64) (byte, bool) {
	if off < 0 || off >= int64(len(s)) {
		return 0, false
	}
	return s[off], true
}

func (s sliceSource) Close() error { return nil }

func TestRegistryLastWriteWins(t *testing.T) {
	r := New(ASCII)
	if got := r.Mode(); got != ASCII {
		t.Fatalf("Mode returned %q, want %q", got, ASCII)
	}
	r.SetMode("CP437")
	r.SetMode("bogus")
	if got := r.Mode(); got != "bogus" {
		t.Fatalf("Mode returned %q, want %q", got, "bogus")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New(UTF8)
	b := New(UTF8)
	a.SetMode("CP1251")
	if b.Mode() != UTF8 {
		t.Fatalf("changing one registry must not affect another")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := New(ASCII)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.SetMode(UTF8)
			} else {
				_ = r.Mode()
			}
		}(i)
	}
	wg.Wait()
	if r.Mode() != UTF8 {
		t.Fatalf("expected final mode UTF8, got %q", r.Mode())
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		mode string
		want SchemeKind
	}{
		{mode: "ASCII", want: SchemeASCII},
		{mode: "utf8", want: SchemeUTF8},
		{mode: "UTF-8", want: SchemeUTF8},
		{mode: "CP437", want: SchemeTable},
		{mode: "cp1251", want: SchemeTable},
		{mode: "nonsense", want: SchemeASCII},
	}
	for _, tt := range tests {
		if got := Resolve(tt.mode).Kind; got != tt.want {
			t.Fatalf("Resolve(%q) kind = %v, want %v", tt.mode, got, tt.want)
		}
	}
	if !IsKnown("cp437") || IsKnown("nonsense") {
		t.Fatalf("IsKnown returned unexpected results")
	}
}

func TestDecoderFollowsRegistry(t *testing.T) {
	src := sliceSource([]byte{0xC9, 'A'})
	modes := New(ASCII)
	dec := NewDecoder(src, modes)

	ch, ok := dec.CharAt(0)
	if !ok || ch.Rune != '.' {
		t.Fatalf("ASCII CharAt(0) = %q, %v; want '.'", ch.Rune, ok)
	}

	modes.SetMode("CP437")
	ch, ok = dec.CharAt(0)
	if !ok || ch.Rune != '╔' || ch.Size != 1 {
		t.Fatalf("CP437 CharAt(0) = %+v, %v; want '╔'", ch, ok)
	}
	if ch.Rune != codepage.Decode(&codepage.CP437, 0xC9) {
		t.Fatalf("decoder disagrees with code page table")
	}

	if _, ok := dec.CharAt(2); ok {
		t.Fatalf("CharAt past end should report no data")
	}
}

func TestDecoderUTF8(t *testing.T) {
	src := sliceSource([]byte("aż世\xffb"))
	dec := NewDecoder(src, New(UTF8))

	want := []struct {
		off   int64
		r     rune
		size  int
		width int
	}{
		{0, 'a', 1, 1},
		{1, 'ż', 2, 1},
		{3, '世', 3, 2},
		{6, '�', 1, 1},
		{7, 'b', 1, 1},
	}
	off := int64(0)
	for _, w := range want {
		if off != w.off {
			t.Fatalf("NextOffset walk reached %d, want %d", off, w.off)
		}
		ch, ok := dec.CharAt(off)
		if !ok || ch.Rune != w.r || ch.Size != w.size || ch.Width != w.width {
			t.Fatalf("CharAt(%d) = %+v, %v; want rune %q size %d width %d", off, ch, ok, w.r, w.size, w.width)
		}
		off = dec.NextOffset(off)
	}
	if off != src.MaxOffset() {
		t.Fatalf("walk ended at %d, want %d", off, src.MaxOffset())
	}
}

func TestDecoderPrevOffsetUTF8(t *testing.T) {
	src := sliceSource([]byte("aż世b"))
	dec := NewDecoder(src, New(UTF8))

	tests := []struct {
		off  int64
		want int64
	}{
		{off: 7, want: 6},
		{off: 6, want: 3},
		{off: 3, want: 1},
		{off: 1, want: 0},
		{off: 0, want: 0},
		{off: 100, want: 6},
	}
	for _, tt := range tests {
		if got := dec.PrevOffset(tt.off); got != tt.want {
			t.Fatalf("PrevOffset(%d) = %d, want %d", tt.off, got, tt.want)
		}
	}
}

func TestDecoderPrevOffsetSingleByte(t *testing.T) {
	src := sliceSource([]byte("abc"))
	dec := NewDecoder(src, New("CP437"))
	if got := dec.PrevOffset(2); got != 1 {
		t.Fatalf("PrevOffset(2) = %d, want 1", got)
	}
}
