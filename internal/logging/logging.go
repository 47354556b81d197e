// Package logging builds the logrus logger shared by the CLI and the traversal sources.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	// Debug lowers the level from warn to debug.
	Debug bool
	// File, if set, sends output to a rotating log file instead of Output.
	File string
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// Output is the writer used when File is empty; nil means stderr.
	Output io.Writer
}

// Logger wraps a logrus logger together with the file it may own.
type Logger struct {
	*logrus.Logger

	closer io.Closer
}

// New creates a Logger.
func New(opts Options) *Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		out = rotating
		closer = rotating

		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	logger.SetOutput(out)

	return &Logger{Logger: logger, closer: closer}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Options{Output: io.Discard})
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}

	return l.closer.Close()
}
