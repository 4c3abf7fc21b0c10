// Package viewer ties one opened file to its byte source, its input mode and
// its search runner, the state an internal viewer window holds.
package viewer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kk-code-lab/rview/internal/bytesource"
	"github.com/kk-code-lab/rview/internal/codepage"
	fsutil "github.com/kk-code-lab/rview/internal/fs"
	"github.com/kk-code-lab/rview/internal/inputmode"
	"github.com/kk-code-lab/rview/internal/search"
	"github.com/kk-code-lab/rview/internal/textutil"
)

// DefaultHexWidth is the number of bytes shown per hex dump line.
const DefaultHexWidth = 16

// maxLineChars bounds TextAt when no width limit is given.
const maxLineChars = 4096

type Options struct {
	Source bytesource.Options
	// Mode is the initial input mode; empty picks one from the file head.
	Mode          string
	SearchQuantum int64
}

type Viewer struct {
	path    string
	src     bytesource.Source
	modes   *inputmode.Registry
	decoder *inputmode.Decoder
	runner  *search.Runner
	quantum int64
}

// Open opens path for viewing. Errors opening the file are returned as is.
func Open(path string, opts Options) (*Viewer, error) {
	src, err := bytesource.Open(path, opts.Source)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = fsutil.DefaultInputMode(bytesource.ReadRange(src, 0, fsutil.SampleSize))
	}

	modes := inputmode.New(mode)
	return &Viewer{
		path:    path,
		src:     src,
		modes:   modes,
		decoder: inputmode.NewDecoder(src, modes),
		runner:  &search.Runner{Engine: search.Engine{Quantum: opts.SearchQuantum}},
		quantum: opts.SearchQuantum,
	}, nil
}

func (v *Viewer) Path() string {
	return v.path
}

func (v *Viewer) Source() bytesource.Source {
	return v.src
}

func (v *Viewer) Kind() bytesource.Kind {
	return bytesource.Describe(v.src)
}

func (v *Viewer) Size() int64 {
	return v.src.MaxOffset()
}

func (v *Viewer) Modes() *inputmode.Registry {
	return v.modes
}

func (v *Viewer) Decoder() *inputmode.Decoder {
	return v.decoder
}

// Close cancels any running search, waits for it and releases the file.
func (v *Viewer) Close() error {
	v.runner.Cancel()
	v.runner.Wait()
	return v.src.Close()
}

// HexLine formats width bytes from off as an offset column, hex bytes and a
// decoded column.
func (v *Viewer) HexLine(off int64, width int) string {
	return v.HexLineN(off, width, width)
}

// HexLineN is HexLine showing at most n bytes; the remaining columns stay
// blank so lines of a dump line up.
func (v *Viewer) HexLineN(off int64, width, n int) string {
	if width <= 0 {
		width = DefaultHexWidth
	}
	if n < 0 || n > width {
		n = width
	}
	chunk := bytesource.ReadRange(v.src, off, n)
	scheme := v.decoder.Scheme()

	var builder strings.Builder
	builder.Grow(16 + width*4)
	fmt.Fprintf(&builder, "%08X  ", off)

	half := width / 2
	for i := 0; i < width; i++ {
		if i < len(chunk) {
			fmt.Fprintf(&builder, "%02X ", chunk[i])
		} else {
			builder.WriteString("   ")
		}
		if i == half-1 {
			builder.WriteString(" ")
		}
	}

	builder.WriteString(" |")
	for _, b := range chunk {
		builder.WriteRune(dumpRune(scheme, b))
	}
	for i := len(chunk); i < width; i++ {
		builder.WriteByte(' ')
	}
	builder.WriteString("|")
	return builder.String()
}

func dumpRune(scheme inputmode.Scheme, b byte) rune {
	if scheme.Kind == inputmode.SchemeTable {
		return codepage.Decode(scheme.Table, b)
	}
	if b >= 32 && b <= 126 {
		return rune(b)
	}
	return '.'
}

// TextAt decodes one display line starting at off, stopping after a line
// break or before exceeding maxCells columns (0 means no limit). It returns
// the line and the offset where the next line starts.
func (v *Viewer) TextAt(off int64, maxCells int) (string, int64) {
	var (
		raw  []rune
		ends []int64
	)
	pos := off
	for len(raw) < maxLineChars {
		ch, ok := v.decoder.CharAt(pos)
		if !ok {
			break
		}
		pos += int64(ch.Size)
		if ch.Rune == '\n' {
			break
		}
		if ch.Rune == '\r' {
			continue
		}
		r := ch.Rune
		if r != '\t' && (r < 0x20 || r == 0x7F) {
			r = codepage.Placeholder
		}
		raw = append(raw, r)
		ends = append(ends, pos)
	}

	line := expandLine(raw)
	if maxCells <= 0 || textutil.DisplayWidth(line) <= maxCells {
		return textutil.SanitizeTerminalText(line), pos
	}

	// Widths grow with the prefix, so the cut point can be bisected.
	fit := sort.Search(len(raw)+1, func(k int) bool {
		return textutil.DisplayWidth(expandLine(raw[:k])) > maxCells
	}) - 1
	if fit <= 0 {
		return "", off
	}
	return textutil.SanitizeTerminalText(expandLine(raw[:fit])), ends[fit-1]
}

func expandLine(runes []rune) string {
	return textutil.ExpandTabs(string(runes), textutil.DefaultTabWidth)
}

func (v *Viewer) engine(dir search.Direction, onProgress func(int)) search.Engine {
	return search.Engine{Quantum: v.quantum, Direction: dir, OnProgress: onProgress}
}

// Find runs one search synchronously using the current input mode.
func (v *Viewer) Find(ctx context.Context, req search.Request, start int64, dir search.Direction, onProgress func(int)) (search.Result, error) {
	return v.engine(dir, onProgress).Search(ctx, v.src, start, req, v.modes.Mode())
}

// NextStart returns where a repeated search continues after res.
func NextStart(res search.Result, dir search.Direction) int64 {
	if dir == search.Backward {
		return res.Offset
	}
	return res.Offset + 1
}

// StartFind runs a search in the background, cancelling any earlier one.
// It must be called from a single goroutine, like the UI loop that owns the viewer.
func (v *Viewer) StartFind(ctx context.Context, req search.Request, start int64, dir search.Direction) <-chan search.Event {
	v.runner.Engine = v.engine(dir, nil)
	return v.runner.Start(ctx, v.src, start, req, v.modes.Mode())
}

// CancelFind stops the background search, if any.
func (v *Viewer) CancelFind() {
	v.runner.Cancel()
}
