package xlog

import gologpkg "github.com/prataprc/golog"

// goLogger is xlog's default Logger, delegating formatting and output
// to golog while still honoring xlog's own level filter, so a caller
// that never touches golog directly still gets golog's own log
// formatting on the wire.
type goLogger struct {
	level LogLevel
}

func (l *goLogger) SetLogLevel(level string) {
	l.level = string2logLevel(level)
}

func (l *goLogger) Fatalf(format string, v ...interface{}) {
	l.Printlf(logLevelFatal, format, v...)
}

func (l *goLogger) Errorf(format string, v ...interface{}) {
	l.Printlf(logLevelError, format, v...)
}

func (l *goLogger) Warnf(format string, v ...interface{}) {
	l.Printlf(logLevelWarn, format, v...)
}

func (l *goLogger) Infof(format string, v ...interface{}) {
	l.Printlf(logLevelInfo, format, v...)
}

func (l *goLogger) Verbosef(format string, v ...interface{}) {
	l.Printlf(logLevelVerbose, format, v...)
}

func (l *goLogger) Debugf(format string, v ...interface{}) {
	l.Printlf(logLevelDebug, format, v...)
}

func (l *goLogger) Tracef(format string, v ...interface{}) {
	l.Printlf(logLevelTrace, format, v...)
}

func (l *goLogger) Printlf(level LogLevel, format string, v ...interface{}) {
	if level > l.level {
		return
	}
	switch level {
	case logLevelFatal:
		gologpkg.Fatalf(format, v...)
	case logLevelError:
		gologpkg.Errorf(format, v...)
	case logLevelWarn:
		gologpkg.Warnf(format, v...)
	case logLevelInfo:
		gologpkg.Infof(format, v...)
	case logLevelVerbose:
		gologpkg.Verbosef(format, v...)
	case logLevelDebug:
		gologpkg.Debugf(format, v...)
	case logLevelTrace:
		gologpkg.Tracef(format, v...)
	}
}
