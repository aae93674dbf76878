// Package logging constructs the loggers used across taskmirror.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a stderr logger with the given bracketed prefix,
// e.g. New("sync") produces "[sync] " entries.
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}

// NewRotating returns a logger that writes to both stderr and a
// size-capped rotating file at path.
func NewRotating(path, component string) *log.Logger {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	w := io.MultiWriter(os.Stderr, rotator)
	return log.New(w, "["+component+"] ", log.LstdFlags)
}
