package eventlog

import (
	"errors"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// ErrNoPath is returned when a FileLogger is opened without a path.
var ErrNoPath = errors.New("eventlog: no file path")

// FileLoggerConfig configures a FileLogger.
type FileLoggerConfig struct {
	// Path of the log file. It is created with mode 0600 and appended to.
	Path string

	// Filter restricts which events reach the file.
	Filter Filter

	// SyncOnError flushes the file to disk after every error event so a
	// failed pairing stays on record if the process dies right after.
	SyncOnError bool
}

// FileLogger appends CBOR-encoded pairing events to a file.
type FileLogger struct {
	config  FileLoggerConfig
	file    *os.File
	encoder *cbor.Encoder

	mu      sync.Mutex
	closed  bool
	written int
	dropped int
}

// NewFileLogger opens config.Path for appending.
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if config.Path == "" {
		return nil, ErrNoPath
	}
	f, err := os.OpenFile(config.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		config:  config,
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Log writes an event that passes the filter. Events that fail to encode,
// or arrive after Close, are counted as dropped.
func (l *FileLogger) Log(event Event) {
	if !l.config.Filter.matches(event) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		l.dropped++
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.dropped++
		return
	}
	l.written++
	if l.config.SyncOnError && event.Category == CategoryError {
		_ = l.file.Sync()
	}
}

// Stats returns how many events were written and dropped.
func (l *FileLogger) Stats() (written, dropped int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.dropped
}

// Path returns the log file path.
func (l *FileLogger) Path() string {
	return l.config.Path
}

// Close syncs and closes the file. It is safe to call more than once.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	syncErr := l.file.Sync()
	if err := l.file.Close(); err != nil {
		return err
	}
	return syncErr
}

var _ Logger = (*FileLogger)(nil)
