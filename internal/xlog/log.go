//  Copyright (c) 2014 Couchbase, Inc.

// Package xlog gives the allocator tiers a pluggable logger: embedders
// can supply their own Logger, or let it default to one backed by
// github.com/prataprc/golog.
package xlog

import "strings"

func init() {
	setts := map[string]interface{}{
		"log.level": "info",
	}
	SetLogger(nil, setts)
}

// Logger is the interface package malloc logs through. Applications
// embedding this allocator can supply their own implementation via
// SetLogger; otherwise xlog falls back to golog.
type Logger interface {
	SetLogLevel(string)
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
	Printlf(loglevel LogLevel, format string, v ...interface{})
}

// LogLevel defines the allocator's log level.
type LogLevel int

const (
	logLevelIgnore LogLevel = iota + 1
	logLevelFatal
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelVerbose
	logLevelDebug
	logLevelTrace
)

var log Logger // object used by package malloc for logging.

// SetLogger installs logger as the target of every xlog call. Passing
// nil installs the golog-backed default at the level named by
// setts["log.level"] ("info" if absent).
func SetLogger(logger Logger, setts map[string]interface{}) Logger {
	if logger != nil {
		log = logger
		return log
	}

	levelName, _ := setts["log.level"].(string)
	if levelName == "" {
		levelName = "info"
	}
	log = &goLogger{level: string2logLevel(levelName)}
	return log
}

func (l LogLevel) String() string {
	switch l {
	case logLevelIgnore:
		return "Ignor"
	case logLevelFatal:
		return "Fatal"
	case logLevelError:
		return "Error"
	case logLevelWarn:
		return "Warng"
	case logLevelInfo:
		return "Infom"
	case logLevelVerbose:
		return "Verbs"
	case logLevelDebug:
		return "Debug"
	case logLevelTrace:
		return "Trace"
	}
	panic("unexpected log level") // should never reach here
}

func string2logLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "ignore":
		return logLevelIgnore
	case "fatal":
		return logLevelFatal
	case "error":
		return logLevelError
	case "warn":
		return logLevelWarn
	case "info":
		return logLevelInfo
	case "verbose":
		return logLevelVerbose
	case "debug":
		return logLevelDebug
	case "trace":
		return logLevelTrace
	}
	panic("unexpected log level") // should never reach here
}

func Fatalf(format string, v ...interface{}) { log.Printlf(logLevelFatal, format, v...) }
func Errorf(format string, v ...interface{}) { log.Printlf(logLevelError, format, v...) }
func Warnf(format string, v ...interface{})  { log.Printlf(logLevelWarn, format, v...) }
func Infof(format string, v ...interface{})  { log.Printlf(logLevelInfo, format, v...) }
func Verbosef(format string, v ...interface{}) {
	log.Printlf(logLevelVerbose, format, v...)
}
func Debugf(format string, v ...interface{}) { log.Printlf(logLevelDebug, format, v...) }
func Tracef(format string, v ...interface{}) { log.Printlf(logLevelTrace, format, v...) }
