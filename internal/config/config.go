// Package config collects viewer settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvNoMmap        = "RVIEW_NO_MMAP"
	EnvPageSize      = "RVIEW_PAGE_SIZE"
	EnvMode          = "RVIEW_MODE"
	EnvSearchQuantum = "RVIEW_SEARCH_QUANTUM"
)

type GetenvFunc func(string) string

// Config holds settings that flags may override.
type Config struct {
	DisableMmap   bool
	PageSize      int
	Mode          string
	SearchQuantum int64
}

// Load reads settings through getenv; nil uses os.Getenv. Malformed numbers
// are reported rather than silently ignored.
func Load(getenv GetenvFunc) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	var cfg Config

	cfg.DisableMmap = parseBool(getenv(EnvNoMmap))
	cfg.Mode = strings.TrimSpace(getenv(EnvMode))

	if raw := strings.TrimSpace(getenv(EnvPageSize)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: invalid page size %q", EnvPageSize, raw)
		}
		cfg.PageSize = n
	}
	if raw := strings.TrimSpace(getenv(EnvSearchQuantum)); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: invalid quantum %q", EnvSearchQuantum, raw)
		}
		cfg.SearchQuantum = n
	}
	return cfg, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
