package logger

import (
	"bytes"
	"sync"
)

// LineWriter is an io.Writer that logs every complete line it receives.
// It lets subprocess stdout/stderr land in the run log.
type LineWriter struct {
	mu  sync.Mutex
	log Logger
	msg string
	kvs []any
	buf []byte
}

// NewLineWriter logs each line at info level as msg with a "line" field.
func NewLineWriter(log Logger, msg string, keysAndValues ...any) *LineWriter {
	return &LineWriter{log: log, msg: msg, kvs: keysAndValues}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		w.emit(w.buf[:idx])
		w.buf = w.buf[idx+1:]
	}
	return len(p), nil
}

// Flush logs a trailing partial line, if any.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *LineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	kvs := append(append([]any{}, w.kvs...), "line", string(line))
	w.log.Info(w.msg, kvs...)
}
