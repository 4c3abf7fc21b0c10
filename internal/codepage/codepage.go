// Package codepage maps single-byte code page values to display runes.
package codepage

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alphadose/haxmap"
	"golang.org/x/text/encoding/charmap"
)

// Placeholder is shown for NUL and for bytes whose code page entry is a
// control character or undefined.
const Placeholder = '·'

// standIn marks table entries that display as Placeholder but stand for no
// character, so they never match an encoded rune.
const standIn rune = -1

// Table maps every byte value to the rune displayed for it.
type Table [256]rune

// Decode returns the display rune for b. It never fails.
func Decode(t *Table, b byte) rune {
	if r := t[b]; r != standIn {
		return r
	}
	return Placeholder
}

// Encode returns the lowest byte that stands for r under t.
func Encode(t *Table, r rune) (byte, bool) {
	if r < 0 {
		return 0, false
	}
	for i, entry := range t {
		if entry == r {
			return byte(i), true
		}
	}
	return 0, false
}

// Bytes returns every byte that stands for r under t, in ascending order.
func Bytes(t *Table, r rune) []byte {
	if r < 0 {
		return nil
	}
	var out []byte
	for i, entry := range t {
		if entry == r {
			out = append(out, byte(i))
		}
	}
	return out
}

// FromCharmap builds a display table from cm. NUL, control and undefined
// bytes become stand-ins.
func FromCharmap(cm *charmap.Charmap) *Table {
	var t Table
	for i := range t {
		r := cm.DecodeByte(byte(i))
		if i == 0 || r == utf8.RuneError || unicode.IsControl(r) {
			r = standIn
		}
		t[i] = r
	}
	return &t
}

var (
	CP850      = FromCharmap(charmap.CodePage850)
	CP866      = FromCharmap(charmap.CodePage866)
	CP1250     = FromCharmap(charmap.Windows1250)
	CP1251     = FromCharmap(charmap.Windows1251)
	CP1252     = FromCharmap(charmap.Windows1252)
	ISO8859_1  = FromCharmap(charmap.ISO8859_1)
	ISO8859_2  = FromCharmap(charmap.ISO8859_2)
	ISO8859_5  = FromCharmap(charmap.ISO8859_5)
	ISO8859_15 = FromCharmap(charmap.ISO8859_15)
	KOI8R      = FromCharmap(charmap.KOI8R)
	KOI8U      = FromCharmap(charmap.KOI8U)
)

var registry = newRegistry()

func newRegistry() *haxmap.Map[string, *Table] {
	m := haxmap.New[string, *Table]()
	m.Set("CP437", &CP437)
	m.Set("CP850", CP850)
	m.Set("CP866", CP866)
	m.Set("CP1250", CP1250)
	m.Set("CP1251", CP1251)
	m.Set("CP1252", CP1252)
	m.Set("ISO-8859-1", ISO8859_1)
	m.Set("ISO-8859-2", ISO8859_2)
	m.Set("ISO-8859-5", ISO8859_5)
	m.Set("ISO-8859-15", ISO8859_15)
	m.Set("KOI8-R", KOI8R)
	m.Set("KOI8-U", KOI8U)
	return m
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Lookup returns the table registered under id. Identifiers are case-insensitive.
func Lookup(id string) (*Table, bool) {
	return registry.Get(normalizeID(id))
}

// Register adds or replaces the table for id.
func Register(id string, t *Table) {
	id = normalizeID(id)
	if id == "" || t == nil {
		return
	}
	registry.Set(id, t)
}

// IDs lists the registered identifiers in sorted order.
func IDs() []string {
	ids := make([]string, 0, registry.Len())
	registry.ForEach(func(id string, _ *Table) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids
}
