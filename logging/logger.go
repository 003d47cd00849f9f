package logging

import (
	"io"
	golog "log"
)

type Logger interface {
	Debugf(message string, fields Fields)
	Infof(message string, fields Fields)
	Warnf(message string, fields Fields)
	Errorf(message string, fields Fields)
	Criticalf(message string, fields Fields)

	Debug(message string)
	Info(message string)
	Warn(message string)
	Error(message string)
	Critical(message string)

	IsDebug() bool
	IsInfo() bool
	IsWarn() bool
	IsError() bool
	IsCritical() bool

	Named(name string) Logger
}

type logger struct {
	name     string
	out      *golog.Logger
	format   format
	minLevel level
}

func newLogger(minLevel level, format format, w io.Writer) *logger {
	flags := golog.LstdFlags
	if format == formatJSON {
		flags = 0
	}
	return &logger{
		name:     "",
		out:      golog.New(w, "", flags),
		format:   format,
		minLevel: minLevel,
	}
}

// Named returns a logger sharing l's output whose records carry name. Names nest with
// a dot.
func (l *logger) Named(name string) Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &logger{
		name:     name,
		out:      l.out,
		format:   l.format,
		minLevel: l.minLevel,
	}
}

func (l *logger) Debug(message string) {
	l.Debugf(message, Fields{})
}

func (l *logger) Info(message string) {
	l.Infof(message, Fields{})
}

func (l *logger) Warn(message string) {
	l.Warnf(message, Fields{})
}

func (l *logger) Error(message string) {
	l.Errorf(message, Fields{})
}

func (l *logger) Critical(message string) {
	l.Criticalf(message, Fields{})
}

func (l *logger) Debugf(message string, fields Fields) {
	l.logAtLevel(levelDebug, message, fields)
}

func (l *logger) Infof(message string, fields Fields) {
	l.logAtLevel(levelInfo, message, fields)
}

func (l *logger) Warnf(message string, fields Fields) {
	l.logAtLevel(levelWarn, message, fields)
}

func (l *logger) Errorf(message string, fields Fields) {
	l.logAtLevel(levelError, message, fields)
}

func (l *logger) Criticalf(message string, fields Fields) {
	l.logAtLevel(levelCritical, message, fields)
}

func (l *logger) IsDebug() bool {
	return l.minLevel <= levelDebug
}

func (l *logger) IsInfo() bool {
	return l.minLevel <= levelInfo
}

func (l *logger) IsWarn() bool {
	return l.minLevel <= levelWarn
}

func (l *logger) IsError() bool {
	return l.minLevel <= levelError
}

func (l *logger) IsCritical() bool {
	return l.minLevel <= levelCritical
}

func (l *logger) logAtLevel(lvl level, message string, fields Fields) {
	if l.minLevel > lvl {
		return
	}

	switch l.format {
	case formatJSON:
		l.out.Println(jsonFormatter(lvl, l.name, message, fields))
	default:
		l.out.Println(textFormatter(lvl, l.name, message, fields))
	}
}
