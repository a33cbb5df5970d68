// Package logging builds the leveled logger shared by the command and the
// pyramid filter.
package logging

import (
	"bytes"
	"os"
	"sync"

	"github.com/jcgregorio/logger"
)

// New returns a logger writing to dst. Debug lines are dropped unless debug
// is set.
func New(dst logger.SyncWriter, debug bool) *logger.Logger {
	return logger.NewFromOptions(&logger.Options{
		SyncWriter:   dst,
		DepthDelta:   2,
		IncludeDebug: debug,
	})
}

// Stderr is New(os.Stderr, debug).
func Stderr(debug bool) *logger.Logger {
	return New(os.Stderr, debug)
}

// Buffer is an in-memory SyncWriter, handy for capturing log output.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Sync implements logger.SyncWriter.
func (b *Buffer) Sync() error { return nil }

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
