package testutil

import (
	"bytes"
	"io"
	"sync"

	"github.com/johnrirwin/autolot/internal/logging"
)

// NullLogger returns a logger that discards all output
func NullLogger() *logging.Logger {
	return logging.NewWithWriter(logging.LevelError, io.Discard)
}

// LogBuffer collects JSON log lines for assertions
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CapturingLogger returns a debug-level logger writing into a LogBuffer
func CapturingLogger() (*logging.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return logging.NewWithWriter(logging.LevelDebug, buf), buf
}
