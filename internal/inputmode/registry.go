// Package inputmode tracks the decoding mode a viewer renders with and
// decodes characters from a byte source under that mode.
package inputmode

import (
	"strings"
	"sync"

	"github.com/kk-code-lab/rview/internal/codepage"
)

const (
	ASCII = "ASCII"
	UTF8  = "UTF8"
)

// Registry holds the current mode of one viewer. The mode string is not
// validated; consumers decide what an unknown mode means.
type Registry struct {
	mu   sync.RWMutex
	mode string
}

func New(initial string) *Registry {
	return &Registry{mode: initial}
}

func (r *Registry) Mode() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

func (r *Registry) SetMode(mode string) {
	r.mu.Lock()
	r.mode = mode
	r.mu.Unlock()
}

// Known lists every mode a decoder understands.
func Known() []string {
	return append([]string{ASCII, UTF8}, codepage.IDs()...)
}

// IsKnown reports whether mode names ASCII, UTF8 or a registered code page.
func IsKnown(mode string) bool {
	switch normalize(mode) {
	case ASCII, UTF8:
		return true
	}
	_, ok := codepage.Lookup(mode)
	return ok
}

func normalize(mode string) string {
	m := strings.ToUpper(strings.TrimSpace(mode))
	if m == "UTF-8" {
		return UTF8
	}
	return m
}
