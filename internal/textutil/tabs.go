package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const DefaultTabWidth = 8

// ExpandTabs replaces tab characters with spaces respecting terminal column width.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text
	}

	var builder strings.Builder
	column := 0
	for _, ru := range text {
		if ru == '\t' {
			spaces := tabWidth - (column % tabWidth)
			for i := 0; i < spaces; i++ {
				builder.WriteByte(' ')
			}
			column += spaces
			continue
		}
		builder.WriteRune(ru)
		width := runewidth.RuneWidth(ru)
		if width < 1 {
			width = 1
		}
		column += width
	}
	return builder.String()
}

// DisplayWidth reports the terminal width of text, measured per grapheme cluster.
func DisplayWidth(text string) int {
	return uniseg.StringWidth(text)
}

// ClipToWidth returns the longest prefix of text that fits in cells columns
// without splitting a grapheme cluster, along with its width.
func ClipToWidth(text string, cells int) (string, int) {
	if cells <= 0 || text == "" {
		return "", 0
	}
	width := 0
	end := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		w := g.Width()
		if width+w > cells {
			break
		}
		width += w
		_, end = g.Positions()
	}
	return text[:end], width
}
