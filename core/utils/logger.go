package utils

import (
	"io"
	"log"
	"os"
)

// Logger is the app-wide leveled logger. Call sites treat a nil receiver as
// "logging disabled", so components can hold it without guarding every call.
type Logger struct {
	out *log.Logger
	err *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		out: log.New(os.Stdout, "", log.LstdFlags),
		err: log.New(os.Stderr, "ERROR ", log.LstdFlags),
	}
}

// NewLoggerTo writes both levels to the given writer. Tests use this to keep
// output captured.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		out: log.New(w, "", log.LstdFlags),
		err: log.New(w, "ERROR ", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.out.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.err == nil {
		return
	}
	l.err.Printf(format, args...)
}
