package debuglog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// EnvVar names the file diagnostics are appended to. Logging is disabled when unset.
const EnvVar = "RVIEW_DEBUG_LOG"

var (
	mu   sync.Mutex
	path = os.Getenv(EnvVar)
)

// Enabled reports whether diagnostics are being written.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return path != ""
}

// SetPath redirects diagnostics to file. An empty path disables logging.
func SetPath(file string) {
	mu.Lock()
	path = file
	mu.Unlock()
}

// Printf appends one timestamped line to the debug log.
func Printf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if path == "" {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	timestamp := time.Now().Format(time.RFC3339Nano)
	_, _ = fmt.Fprintf(f, "%s "+format+"\n", append([]interface{}{timestamp}, args...)...)
	_ = f.Close()
}
