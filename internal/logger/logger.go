package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"productvision/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr,
// plus a JSON lines log of emitted detection reports.
type Logger struct {
	infoLog      *log.Logger
	warningLog   *log.Logger
	errorLog     *log.Logger
	detectionLog io.Writer
	closers      []io.Closer
	mu           sync.Mutex
}

// NewLogger creates a Logger writing under cfg.LogDirectory and echoing to stdout/stderr.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return newRollingLogger(cfg, os.Stdout)
}

// NewConsoleLogger is NewLogger with every console echo sent to stderr, leaving
// stdout to the command's own output.
func NewConsoleLogger(cfg *config.Config) (*Logger, error) {
	return newRollingLogger(cfg, os.Stderr)
}

func newRollingLogger(cfg *config.Config, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	infoFile := rollingFile(cfg.LogDirectory, "info.log", 10)
	warningFile := rollingFile(cfg.LogDirectory, "warning.log", 10)
	errorFile := rollingFile(cfg.LogDirectory, "error.log", 10)
	detectionFile := rollingFile(cfg.LogDirectory, "detections.log", 50)

	l := New(
		io.MultiWriter(console, infoFile),
		io.MultiWriter(console, warningFile),
		io.MultiWriter(os.Stderr, errorFile),
		detectionFile,
	)
	l.closers = []io.Closer{infoFile, warningFile, errorFile, detectionFile}
	return l, nil
}

// New builds a Logger over arbitrary writers.
func New(info, warning, errOut, detections io.Writer) *Logger {
	return &Logger{
		infoLog:      log.New(info, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile),
		warningLog:   log.New(warning, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLog:     log.New(errOut, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile),
		detectionLog: detections,
	}
}

// NewDiscard returns a Logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	return New(io.Discard, io.Discard, io.Discard, io.Discard)
}

func rollingFile(dir, name string, maxSizeMB int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    maxSizeMB, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Detections appends one JSON entry describing a report to the detection log.
func (l *Logger) Detections(source string, report interface{}) {
	entry := map[string]interface{}{
		"time":   time.Now().Format(time.RFC3339),
		"source": source,
		"report": report,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.Error("Error marshaling detections: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.detectionLog.Write(append(data, '\n')); err != nil {
		l.errorLog.Printf("Error writing to detection log file: %v", err)
	}
}

// Close flushes and closes the underlying log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
