package search

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrEmptyPattern = errors.New("search: empty pattern")
	ErrInvalidHex   = errors.New("search: invalid hex pattern")
)

// Request describes one search. Text patterns are matched as characters under
// the viewer's input mode; binary patterns as exact byte sequences.
type Request struct {
	text          string
	pattern       []byte
	binary        bool
	caseSensitive bool
}

func NewTextRequest(text string, caseSensitive bool) Request {
	return Request{
		text:          text,
		pattern:       []byte(text),
		caseSensitive: caseSensitive,
	}
}

func NewBinaryRequest(pattern []byte) Request {
	return Request{
		pattern:       append([]byte(nil), pattern...),
		binary:        true,
		caseSensitive: true,
	}
}

// ParseHexRequest builds a binary request from hex digits such as
// ":de ad be ef" or "DEADBEEF". A leading ':' and spaces are ignored.
func ParseHexRequest(query string) (Request, error) {
	hex := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), ":"))
	hex = strings.Join(strings.Fields(hex), "")
	if hex == "" {
		return Request{}, ErrEmptyPattern
	}
	if len(hex)%2 != 0 {
		return Request{}, ErrInvalidHex
	}
	buf := make([]byte, 0, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		hi, ok := hexNibble(hex[i])
		if !ok {
			return Request{}, ErrInvalidHex
		}
		lo, ok := hexNibble(hex[i+1])
		if !ok {
			return Request{}, ErrInvalidHex
		}
		buf = append(buf, hi<<4|lo)
	}
	return Request{pattern: buf, binary: true, caseSensitive: true}, nil
}

func hexNibble(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	default:
		return 0, false
	}
}

// Len is the pattern length in bytes; for text this is the UTF-8 length.
func (r Request) Len() int {
	return len(r.pattern)
}

func (r Request) Binary() bool {
	return r.binary
}

func (r Request) CaseSensitive() bool {
	return r.caseSensitive
}

func (r Request) Text() string {
	return r.text
}

// Bytes returns a copy of the raw pattern.
func (r Request) Bytes() []byte {
	return append([]byte(nil), r.pattern...)
}

// SmartCase reports whether a query should match case-sensitively: only when
// it contains an upper-case letter.
func SmartCase(query string) bool {
	for _, r := range query {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
