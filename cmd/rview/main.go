package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/kk-code-lab/rview/internal/bytesource"
	"github.com/kk-code-lab/rview/internal/config"
	fsutil "github.com/kk-code-lab/rview/internal/fs"
	"github.com/kk-code-lab/rview/internal/inputmode"
	"github.com/kk-code-lab/rview/internal/search"
	"github.com/kk-code-lab/rview/internal/textutil"
	"github.com/kk-code-lab/rview/internal/viewer"
)

const (
	exitOK        = 0
	exitNotFound  = 1
	exitUsage     = 2
	exitCancelled = 130

	defaultDumpBytes = 256
	defaultTextLines = 20
	contextCells     = 60
)

func printHelp(w io.Writer) {
	fmt.Fprint(w, `rview - large file viewer and pattern search

USAGE:
    rview [OPTIONS] FILE

OPTIONS:
    -h, --help              Show this help message and exit
    -m, --mode MODE         Input mode (ASCII, UTF8, CP437, CP1251, ...)
    -f, --find TEXT         Search for text
    -x, --hex HEX           Search for bytes given as hex digits
    -i, --ignore-case       Case-insensitive text search
    -c, --case-sensitive    Case-sensitive text search
                            (default: sensitive only if TEXT has upper case)
    -a, --all               Report every occurrence
    -b, --backward          Search backwards from --from (default: end of file)
        --from OFFSET       Start offset
    -d, --dump OFFSET[:N]   Hex dump N bytes (default 256)
    -t, --text OFFSET       Print decoded text lines starting at OFFSET
        --modes             List input modes

ENVIRONMENT:
    RVIEW_MODE, RVIEW_NO_MMAP, RVIEW_PAGE_SIZE, RVIEW_SEARCH_QUANTUM, RVIEW_DEBUG_LOG
`)
}

type options struct {
	path       string
	mode       string
	find       string
	hex        string
	ignoreCase bool
	matchCase  bool
	all        bool
	backward   bool
	from       int64
	fromSet    bool
	dump       string
	text       string
	listModes  bool
	help       bool
}

var errUsage = errors.New("usage")

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() (string, error) {
			if eq := strings.IndexByte(arg, '='); eq > 0 && strings.HasPrefix(arg, "--") {
				return arg[eq+1:], nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%w: %s needs a value", errUsage, arg)
			}
			i++
			return args[i], nil
		}
		name := arg
		if eq := strings.IndexByte(arg, '='); eq > 0 && strings.HasPrefix(arg, "--") {
			name = arg[:eq]
		}

		var err error
		switch name {
		case "-h", "--help":
			opts.help = true
		case "-m", "--mode":
			opts.mode, err = value()
		case "-f", "--find":
			opts.find, err = value()
		case "-x", "--hex":
			opts.hex, err = value()
		case "-i", "--ignore-case":
			opts.ignoreCase = true
		case "-c", "--case-sensitive":
			opts.matchCase = true
		case "-a", "--all":
			opts.all = true
		case "-b", "--backward":
			opts.backward = true
		case "--from":
			var raw string
			if raw, err = value(); err == nil {
				opts.from, err = parseOffset(raw)
				opts.fromSet = true
			}
		case "-d", "--dump":
			opts.dump, err = value()
		case "-t", "--text":
			opts.text, err = value()
		case "--modes":
			opts.listModes = true
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return opts, fmt.Errorf("%w: unknown option %s", errUsage, arg)
			}
			if opts.path != "" {
				return opts, fmt.Errorf("%w: more than one file given", errUsage)
			}
			opts.path = arg
		}
		if err != nil {
			return opts, err
		}
	}
	if opts.find != "" && opts.hex != "" {
		return opts, fmt.Errorf("%w: --find and --hex are exclusive", errUsage)
	}
	if opts.ignoreCase && opts.matchCase {
		return opts, fmt.Errorf("%w: --ignore-case and --case-sensitive are exclusive", errUsage)
	}
	return opts, nil
}

// parseOffset accepts decimal or 0x-prefixed hex offsets.
func parseOffset(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 0, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid offset %q", errUsage, raw)
	}
	return n, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv config.GetenvFunc) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if opts.help {
		printHelp(stdout)
		return exitOK
	}
	if opts.listModes {
		for _, mode := range inputmode.Known() {
			fmt.Fprintln(stdout, mode)
		}
		return exitOK
	}
	if opts.path == "" {
		printHelp(stderr)
		return exitUsage
	}

	cfg, err := config.Load(getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	mode := cfg.Mode
	if opts.mode != "" {
		mode = opts.mode
	}
	if mode != "" && !inputmode.IsKnown(mode) {
		fmt.Fprintf(stderr, "Warning: unknown input mode %q, showing as ASCII\n", mode)
	}

	v, err := viewer.Open(opts.path, viewer.Options{
		Source:        bytesource.Options{DisableMmap: cfg.DisableMmap, PageSize: cfg.PageSize},
		Mode:          mode,
		SearchQuantum: cfg.SearchQuantum,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer func() {
		_ = v.Close()
	}()

	switch {
	case opts.find != "" || opts.hex != "":
		return runSearch(ctx, v, opts, stdout, stderr)
	case opts.dump != "":
		return runDump(v, opts.dump, stdout, stderr)
	case opts.text != "":
		return runText(v, opts.text, stdout, stderr)
	default:
		return runInfo(v, stdout)
	}
}

func runInfo(v *viewer.Viewer, stdout io.Writer) int {
	kind := "text"
	if sample := bytesource.ReadRange(v.Source(), 0, fsutil.SampleSize); !fsutil.IsTextFile(v.Path(), sample) {
		kind = "binary"
	}
	fmt.Fprintf(stdout, "file:   %s\n", v.Path())
	fmt.Fprintf(stdout, "size:   %d bytes\n", v.Size())
	fmt.Fprintf(stdout, "access: %s\n", v.Kind())
	fmt.Fprintf(stdout, "mode:   %s\n", v.Modes().Mode())
	fmt.Fprintf(stdout, "looks:  %s\n", kind)
	return exitOK
}

func runDump(v *viewer.Viewer, arg string, stdout, stderr io.Writer) int {
	offRaw, countRaw, hasCount := strings.Cut(arg, ":")
	off, err := parseOffset(offRaw)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	count := int64(defaultDumpBytes)
	if hasCount {
		if count, err = parseOffset(countRaw); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
	}
	if off >= v.Size() {
		return exitOK
	}
	end := off + min(count, v.Size()-off)
	for line := off; line < end; line += viewer.DefaultHexWidth {
		n := int(min(end-line, int64(viewer.DefaultHexWidth)))
		fmt.Fprintln(stdout, v.HexLineN(line, viewer.DefaultHexWidth, n))
	}
	return exitOK
}

func runText(v *viewer.Viewer, arg string, stdout, stderr io.Writer) int {
	off, err := parseOffset(arg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	for i := 0; i < defaultTextLines && off < v.Size(); i++ {
		line, next := v.TextAt(off, 0)
		fmt.Fprintf(stdout, "%08X  %s\n", off, line)
		if next <= off {
			break
		}
		off = next
	}
	return exitOK
}

func buildRequest(opts options) (search.Request, error) {
	if opts.hex != "" {
		return search.ParseHexRequest(opts.hex)
	}
	caseSensitive := search.SmartCase(opts.find)
	switch {
	case opts.ignoreCase:
		caseSensitive = false
	case opts.matchCase:
		caseSensitive = true
	}
	return search.NewTextRequest(opts.find, caseSensitive), nil
}

func runSearch(ctx context.Context, v *viewer.Viewer, opts options, stdout, stderr io.Writer) int {
	req, err := buildRequest(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	dir := search.Forward
	start := opts.from
	if opts.backward {
		dir = search.Backward
		if !opts.fromSet {
			start = v.Size()
		}
	}

	progress := newProgressPrinter(stderr)
	found := 0
	for {
		events := v.StartFind(ctx, req, start, dir)
		var final search.Event
		for ev := range events {
			if ev.Done {
				final = ev
				continue
			}
			progress.update(ev.Progress)
		}
		progress.clear()

		if final.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", final.Err)
			return exitUsage
		}
		switch final.Result.Outcome {
		case search.Cancelled:
			fmt.Fprintln(stderr, "cancelled")
			return exitCancelled
		case search.NotFound:
			if found == 0 {
				fmt.Fprintln(stdout, "not found")
				return exitNotFound
			}
			return exitOK
		}

		found++
		printHit(v, final.Result.Offset, stdout)
		if !opts.all {
			return exitOK
		}
		start = viewer.NextStart(final.Result, dir)
		if dir == search.Backward && start == 0 {
			return exitOK
		}
	}
}

func printHit(v *viewer.Viewer, off int64, stdout io.Writer) {
	line, _ := v.TextAt(off, 0)
	snippet, _ := textutil.ClipToWidth(line, contextCells)
	fmt.Fprintf(stdout, "%d\t0x%X\t%s\n", off, off, snippet)
}

type progressPrinter struct {
	w     io.Writer
	last  int
	shown bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: -1}
}

// update rewrites the progress line whenever the whole percent changes.
func (p *progressPrinter) update(permille int) {
	percent := permille / 10
	if percent == p.last {
		return
	}
	p.last = percent
	p.shown = true
	fmt.Fprintf(p.w, "\rsearching... %3d%%", percent)
}

func (p *progressPrinter) clear() {
	if !p.shown {
		return
	}
	fmt.Fprint(p.w, "\r                  \r")
	p.shown = false
	p.last = -1
}
