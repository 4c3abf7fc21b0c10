package fs

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kk-code-lab/rview/internal/inputmode"
)

// SampleSize is how much of a file's head the sniffing functions look at.
const SampleSize = 4096

const nonPrintableThresholdPercent = 30

type unicodeEncoding int

const (
	encodingUnknown unicodeEncoding = iota
	encodingUTF8BOM
	encodingUTF16LE
	encodingUTF16BE
)

var binaryExtensions = map[string]struct{}{
	".7z":    {},
	".apk":   {},
	".avi":   {},
	".bin":   {},
	".bmp":   {},
	".bz2":   {},
	".class": {},
	".dat":   {},
	".dll":   {},
	".doc":   {},
	".docx":  {},
	".dylib": {},
	".exe":   {},
	".flac":  {},
	".gif":   {},
	".gz":    {},
	".ico":   {},
	".iso":   {},
	".jar":   {},
	".jpeg":  {},
	".jpg":   {},
	".mkv":   {},
	".mov":   {},
	".mp3":   {},
	".mp4":   {},
	".ogg":   {},
	".otf":   {},
	".pdf":   {},
	".png":   {},
	".ppt":   {},
	".pptx":  {},
	".psd":   {},
	".so":    {},
	".tar":   {},
	".tgz":   {},
	".ttf":   {},
	".wav":   {},
	".wasm":  {},
	".woff":  {},
	".woff2": {},
	".xls":   {},
	".xlsx":  {},
	".xz":    {},
	".zip":   {},
}

// IsTextFile determines if content is text or binary.
// Callers use it to choose between a text and a hex presentation.
// The path (if provided) is used to short-circuit obvious binary extensions before sniffing.
func IsTextFile(path string, content []byte) bool {
	if looksBinaryByExtension(path) {
		return false
	}

	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	if enc := detectUnicodeEncoding(sample); enc != encodingUnknown {
		return true
	}

	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}

	if utf8.Valid(sample) {
		return true
	}

	printable := 0
	nonPrintable := 0
	for _, b := range sample {
		if isCommonTextByte(b) {
			printable++
		} else {
			nonPrintable++
		}
	}

	if printable == 0 {
		return false
	}

	return nonPrintable*100/len(sample) < nonPrintableThresholdPercent
}

func looksBinaryByExtension(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := binaryExtensions[ext]
	return ok
}

func isCommonTextByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b == 0x1B:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

func detectUnicodeEncoding(sample []byte) unicodeEncoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return encodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return encodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return encodingUTF16BE
		}
	}
	return encodingUnknown
}

// DefaultInputMode picks the mode a viewer starts in for a file whose head is
// sample: UTF8 for a UTF-8 BOM or valid UTF-8 carrying multi-byte sequences,
// ASCII otherwise. Legacy code pages are never guessed.
func DefaultInputMode(sample []byte) string {
	if detectUnicodeEncoding(sample) == encodingUTF8BOM {
		return inputmode.UTF8
	}
	if !hasHighBytes(sample) {
		return inputmode.ASCII
	}
	if utf8.Valid(trimPartialRune(sample)) {
		return inputmode.UTF8
	}
	return inputmode.ASCII
}

func hasHighBytes(sample []byte) bool {
	for _, b := range sample {
		if b >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// trimPartialRune drops a multi-byte sequence cut off by the end of a sample.
func trimPartialRune(sample []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(sample); i++ {
		b := sample[len(sample)-i]
		if b&0xC0 == 0x80 {
			continue
		}
		if b >= 0xC0 && !utf8.FullRune(sample[len(sample)-i:]) {
			return sample[:len(sample)-i]
		}
		break
	}
	return sample
}
