package testutil

import (
	"bytes"
	"io"
	"sync"

	"github.com/dtroode/chatdemo-server/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, 0, "text")
}

// LogBuffer collects log output written from any goroutine.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// MakeBufferLogger returns a debug-level text logger and the buffer it writes to.
func MakeBufferLogger() (*logger.Logger, *LogBuffer) {
	b := &LogBuffer{}
	return logger.NewWithWriter(b, -4, "text"), b
}
