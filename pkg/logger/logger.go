package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Logger struct {
	info  *log.Logger
	error *log.Logger
	warn  *log.Logger
}

func New() *Logger {
	return &Logger{
		info:  log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime),
		error: log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime),
		warn:  log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime),
	}
}

// NewWithWriter sends every level to w. Used by the terminal client and tests
// so log lines do not interleave with command output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		info:  log.New(w, "INFO: ", log.Ldate|log.Ltime),
		error: log.New(w, "ERROR: ", log.Ldate|log.Ltime),
		warn:  log.New(w, "WARN: ", log.Ldate|log.Ltime),
	}
}

// Discard drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.info.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.error.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.warn.Output(2, fmt.Sprintf(format, args...))
}
