// Package logging provides the leveled progress logger used by the batch run.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps a config string to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// New writes info and debug to stdout, warnings and errors to stderr.
func New(level string) *Logger {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

func NewWithWriters(level string, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime
	return &Logger{
		level: ParseLevel(level),
		info:  log.New(out, "INFO: ", flags),
		warn:  log.New(errOut, "WARN: ", flags),
		err:   log.New(errOut, "ERROR: ", flags),
		debug: log.New(out, "DEBUG: ", flags),
	}
}

func NewDiscard() *Logger {
	return NewWithWriters("error", io.Discard, io.Discard)
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Debug(format string, v ...any) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.err.Printf(format, v...)
}
