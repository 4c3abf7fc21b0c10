package inputmode

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/kk-code-lab/rview/internal/bytesource"
	"github.com/kk-code-lab/rview/internal/codepage"
)

// SchemeKind is the decoding family a mode resolves to.
type SchemeKind int

const (
	SchemeASCII SchemeKind = iota
	SchemeUTF8
	SchemeTable
)

// Scheme is a resolved mode.
type Scheme struct {
	Kind  SchemeKind
	Table *codepage.Table
}

// Resolve maps a mode identifier to its scheme. Unknown modes decode as ASCII.
func Resolve(mode string) Scheme {
	switch normalize(mode) {
	case UTF8:
		return Scheme{Kind: SchemeUTF8}
	case ASCII:
		return Scheme{Kind: SchemeASCII}
	}
	if table, ok := codepage.Lookup(mode); ok {
		return Scheme{Kind: SchemeTable, Table: table}
	}
	return Scheme{Kind: SchemeASCII}
}

// SingleByte reports whether every character occupies exactly one byte.
func (s Scheme) SingleByte() bool {
	return s.Kind != SchemeUTF8
}

// DecodeAt decodes the character starting at off.
func (s Scheme) DecodeAt(src bytesource.Source, off int64) (rune, int, bool) {
	b, ok := src.Byte(off)
	if !ok {
		return 0, 0, false
	}
	switch s.Kind {
	case SchemeTable:
		return codepage.Decode(s.Table, b), 1, true
	case SchemeUTF8:
		if b < utf8.RuneSelf {
			return rune(b), 1, true
		}
		var buf [utf8.UTFMax]byte
		buf[0] = b
		n := 1
		for ; n < utf8.UTFMax; n++ {
			next, ok := src.Byte(off + int64(n))
			if !ok || next&0xC0 != 0x80 {
				break
			}
			buf[n] = next
		}
		r, size := utf8.DecodeRune(buf[:n])
		return r, size, true
	default:
		if b < utf8.RuneSelf {
			return rune(b), 1, true
		}
		return '.', 1, true
	}
}

// Char is one decoded character of the viewed file.
type Char struct {
	Rune  rune
	Size  int
	Width int
}

// Decoder reads characters from a source using the registry's current mode.
type Decoder struct {
	src   bytesource.Source
	modes *Registry
}

func NewDecoder(src bytesource.Source, modes *Registry) *Decoder {
	return &Decoder{src: src, modes: modes}
}

// Scheme resolves the mode currently selected in the registry.
func (d *Decoder) Scheme() Scheme {
	return Resolve(d.modes.Mode())
}

// CharAt decodes the character at off. ok is false when no data is available.
func (d *Decoder) CharAt(off int64) (Char, bool) {
	r, size, ok := d.Scheme().DecodeAt(d.src, off)
	if !ok {
		return Char{}, false
	}
	return Char{Rune: r, Size: size, Width: runewidth.RuneWidth(r)}, true
}

// NextOffset returns the offset of the character after the one at off.
func (d *Decoder) NextOffset(off int64) int64 {
	end := d.src.MaxOffset()
	if off >= end {
		return end
	}
	if off < 0 {
		return 0
	}
	_, size, ok := d.Scheme().DecodeAt(d.src, off)
	if !ok || size < 1 {
		size = 1
	}
	return off + int64(size)
}

// PrevOffset returns the offset of the character before off.
func (d *Decoder) PrevOffset(off int64) int64 {
	if off <= 0 {
		return 0
	}
	if end := d.src.MaxOffset(); off > end {
		off = end
	}
	scheme := d.Scheme()
	if scheme.SingleByte() {
		return off - 1
	}
	for back := int64(1); back <= utf8.UTFMax && off-back >= 0; back++ {
		b, ok := d.src.Byte(off - back)
		if !ok {
			break
		}
		if b&0xC0 == 0x80 {
			continue
		}
		if _, size, ok := scheme.DecodeAt(d.src, off-back); ok && int64(size) == back {
			return off - back
		}
		break
	}
	return off - 1
}
