package search

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/kk-code-lab/rview/internal/bytesource"
	"github.com/kk-code-lab/rview/internal/codepage"
	"github.com/kk-code-lab/rview/internal/inputmode"
)

// ErrUnencodable is returned when a text pattern contains a character the
// active code page cannot represent.
var ErrUnencodable = errors.New("search: pattern not representable in input mode")

type matcher interface {
	// matchAt reports whether the pattern starts at off. Unreadable bytes
	// count as a mismatch.
	matchAt(src bytesource.Source, off int64) bool
	// minLen is the fewest bytes an occurrence can span.
	minLen() int64
}

func compile(req Request, scheme inputmode.Scheme) (matcher, error) {
	if req.Len() == 0 {
		return nil, ErrEmptyPattern
	}
	if req.binary {
		return &bytesMatcher{pattern: req.pattern}, nil
	}

	fold := !req.caseSensitive
	switch scheme.Kind {
	case inputmode.SchemeUTF8:
		return &utf8Matcher{runes: []rune(req.text), fold: fold, scheme: scheme}, nil
	case inputmode.SchemeTable:
		accept := make([]*[256]bool, 0, len(req.text))
		for _, r := range req.text {
			set, ok := encodedBytes(scheme.Table, r, fold)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnencodable, r)
			}
			accept = append(accept, set)
		}
		return &tableMatcher{accept: accept}, nil
	default:
		pattern := req.pattern
		if fold {
			pattern = foldASCIIBytes(pattern)
		}
		return &bytesMatcher{pattern: pattern, fold: fold}, nil
	}
}

type bytesMatcher struct {
	pattern []byte
	fold    bool
}

func (m *bytesMatcher) minLen() int64 {
	return int64(len(m.pattern))
}

func (m *bytesMatcher) matchAt(src bytesource.Source, off int64) bool {
	for i, want := range m.pattern {
		b, ok := src.Byte(off + int64(i))
		if !ok {
			return false
		}
		if m.fold {
			b = foldASCII(b)
		}
		if b != want {
			return false
		}
	}
	return true
}

// tableMatcher compares raw bytes against the encodings of each pattern
// character, so bytes shown as the placeholder only match a real one.
type tableMatcher struct {
	accept []*[256]bool
}

func (m *tableMatcher) minLen() int64 {
	return int64(len(m.accept))
}

func (m *tableMatcher) matchAt(src bytesource.Source, off int64) bool {
	for i, set := range m.accept {
		b, ok := src.Byte(off + int64(i))
		if !ok || !set[b] {
			return false
		}
	}
	return true
}

type utf8Matcher struct {
	runes  []rune
	fold   bool
	scheme inputmode.Scheme
}

func (m *utf8Matcher) minLen() int64 {
	return int64(len(m.runes))
}

func (m *utf8Matcher) matchAt(src bytesource.Source, off int64) bool {
	pos := off
	for _, want := range m.runes {
		got, size, ok := m.scheme.DecodeAt(src, pos)
		if !ok {
			return false
		}
		if !runesEqual(got, want, m.fold) {
			return false
		}
		pos += int64(size)
	}
	return true
}

func runesEqual(a, b rune, fold bool) bool {
	if a == b {
		return true
	}
	if !fold {
		return false
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// encodedBytes returns the bytes that stand for r under t, including the
// encodings of its case variants when fold is set.
func encodedBytes(t *codepage.Table, r rune, fold bool) (*[256]bool, bool) {
	var set [256]bool
	found := false
	mark := func(r rune) {
		for _, b := range codepage.Bytes(t, r) {
			set[b] = true
			found = true
		}
	}
	mark(r)
	if fold {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			mark(f)
		}
	}
	return &set, found
}

func foldASCII(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 32
	}
	return ch
}

func foldASCIIBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, ch := range b {
		out[i] = foldASCII(ch)
	}
	return out
}
