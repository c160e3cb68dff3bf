package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Config holds logging-related configuration
type Config struct {
	Level      string
	File       string // Path to log file, empty for stdout only
	MaxSize    int    // Max size in MB
	MaxBackups int    // Number of backups to keep
	MaxAge     int    // Max age in days
}

type Logger struct {
	*log.Logger
	writer *lumberjack.Logger
	min    int
}

func New(config Config) (*Logger, error) {
	min, ok := levelRank[strings.ToLower(config.Level)]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", config.Level)
	}

	if config.File == "" {
		return &Logger{Logger: log.New(os.Stdout, "", log.LstdFlags), min: min}, nil
	}

	if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   true,
	}

	return &Logger{
		Logger: log.New(io.MultiWriter(writer, os.Stdout), "", log.LstdFlags),
		writer: writer,
		min:    min,
	}, nil
}

// NewWriter returns a logger that writes everything to w. Used by tests.
func NewWriter(w io.Writer) *Logger {
	return &Logger{Logger: log.New(w, "", 0), min: levelRank[LevelDebug]}
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return NewWriter(io.Discard)
}

func (l *Logger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

func (l *Logger) logf(level, format string, v ...interface{}) {
	if levelRank[level] < l.min {
		return
	}
	l.Printf("["+strings.ToUpper(level)+"] "+format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(LevelWarn, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}
