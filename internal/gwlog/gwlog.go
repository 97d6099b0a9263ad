// Package gwlog provides the gateway's logging facade.
//
// The shape (Level constants, a Print(level, args...) method, a
// Discard logger for tests) is lifted from gofakes3's own Logger
// interface; the backend is swapped for logrus.
package gwlog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level mirrors gofakes3's LogErr/LogWarn/LogInfo severity constants.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is the facade every component in this gateway logs through.
type Logger interface {
	Print(level Level, v ...interface{})
	Printf(level Level, format string, v ...interface{})
	WithField(key string, value interface{}) Logger
}

// New builds a Logger backed by logrus, writing to stderr as JSON when
// debug is false and as human-readable text when debug is true (matching
// main.rs's env-filter split between "info" and "debug,hyper=info,h2=info").
func New(debug bool) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debug {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything, for use in tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Print(level Level, v ...interface{}) {
	logFn(l.entry, level)(v...)
}

func (l *logrusLogger) Printf(level Level, format string, v ...interface{}) {
	logFn(l.entry, level)(fmt.Sprintf(format, v...))
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func logFn(e *logrus.Entry, level Level) func(args ...interface{}) {
	switch level {
	case LevelError:
		return e.Error
	case LevelWarn:
		return e.Warn
	case LevelDebug:
		return e.Debug
	default:
		return e.Info
	}
}

