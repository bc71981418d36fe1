// Package dlog provides leveled, per-package loggers with pluggable output
// formatters. Packages create a logger at init time with NewPackageLogger;
// the binary picks a Formatter and log levels at startup.
package dlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// LogLevel is the set of all log levels.
type LogLevel int8

const (
	// CRITICAL is the lowest log level; only errors which will end the
	// program will be propagated.
	CRITICAL LogLevel = iota - 1
	// ERROR is for errors that are not fatal but lead to troubling behavior.
	ERROR
	// WARNING is for errors which are not fatal and not errors, but are
	// unusual. Often sourced from misconfigurations.
	WARNING
	// NOTICE is for normal but significant conditions.
	NOTICE
	// INFO is a log level for common, everyday log updates.
	INFO
	// DEBUG is the default hidden level for more verbose updates about
	// internal processes.
	DEBUG
	// TRACE is for (potentially) call by call tracing of programs.
	TRACE
)

// Char returns a single-character representation of the log level.
func (l LogLevel) Char() string {
	switch l {
	case CRITICAL:
		return "C"
	case ERROR:
		return "E"
	case WARNING:
		return "W"
	case NOTICE:
		return "N"
	case INFO:
		return "I"
	case DEBUG:
		return "D"
	case TRACE:
		return "T"
	default:
		panic("unhandled loglevel")
	}
}

// ParseLevel translates some potential loglevel strings into their
// corresponding levels.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(s) {
	case "CRITICAL", "C":
		return CRITICAL, nil
	case "ERROR", "0", "E":
		return ERROR, nil
	case "WARNING", "1", "W":
		return WARNING, nil
	case "NOTICE", "2", "N":
		return NOTICE, nil
	case "INFO", "3", "I":
		return INFO, nil
	case "DEBUG", "4", "D":
		return DEBUG, nil
	case "TRACE", "5", "T":
		return TRACE, nil
	}
	return CRITICAL, fmt.Errorf("couldn't parse log level %s", s)
}

// Formatter renders one log record somewhere.
type Formatter interface {
	Format(pkg string, level LogLevel, msg string)
}

type registry struct {
	lock      sync.Mutex
	pkgMap    map[string]*PackageLogger
	formatter Formatter
}

var logger = &registry{pkgMap: make(map[string]*PackageLogger)}

// NewPackageLogger creates a package logger object. This should be defined
// as a global var in your package.
func NewPackageLogger(pkg string) *PackageLogger {
	logger.lock.Lock()
	defer logger.lock.Unlock()
	p, ok := logger.pkgMap[pkg]
	if !ok {
		p = &PackageLogger{pkg: pkg, level: INFO}
		logger.pkgMap[pkg] = p
	}
	return p
}

// SetFormatter sets the formatting function for all logs.
func SetFormatter(f Formatter) {
	logger.lock.Lock()
	defer logger.lock.Unlock()
	logger.formatter = f
}

// SetGlobalLogLevel sets the log level for all registered packages.
func SetGlobalLogLevel(l LogLevel) {
	logger.lock.Lock()
	defer logger.lock.Unlock()
	for _, p := range logger.pkgMap {
		p.level = l
	}
}

// ParseLogLevelConfig parses a comma-separated string of
// "package=loglevel" and returns a map of the results, for use in
// SetLogLevel. The package "*" applies to every registered package.
func ParseLogLevelConfig(conf string) (map[string]LogLevel, error) {
	out := make(map[string]LogLevel)
	for _, setting := range strings.Split(conf, ",") {
		kv := strings.Split(setting, "=")
		if len(kv) != 2 {
			continue
		}
		l, err := ParseLevel(kv[1])
		if err != nil {
			return nil, err
		}
		out[kv[0]] = l
	}
	return out, nil
}

// SetLogLevel applies a per-package level map produced by
// ParseLogLevelConfig.
func SetLogLevel(m map[string]LogLevel) {
	if l, ok := m["*"]; ok {
		SetGlobalLogLevel(l)
	}
	logger.lock.Lock()
	defer logger.lock.Unlock()
	for pkg, l := range m {
		if p, ok := logger.pkgMap[pkg]; ok {
			p.level = l
		}
	}
}

// PackageLogger emits records for one package at or above its level.
type PackageLogger struct {
	pkg   string
	level LogLevel
}

func (p *PackageLogger) log(l LogLevel, format string, args ...interface{}) {
	if p.level < l {
		return
	}
	logger.lock.Lock()
	defer logger.lock.Unlock()
	if logger.formatter != nil {
		logger.formatter.Format(p.pkg, l, fmt.Sprintf(format, args...))
	}
}

// LevelAt reports whether records at level l are currently emitted.
func (p *PackageLogger) LevelAt(l LogLevel) bool {
	return p.level >= l
}

func (p *PackageLogger) Criticalf(format string, args ...interface{}) {
	p.log(CRITICAL, format, args...)
}

func (p *PackageLogger) Errorf(format string, args ...interface{}) {
	p.log(ERROR, format, args...)
}

func (p *PackageLogger) Warningf(format string, args ...interface{}) {
	p.log(WARNING, format, args...)
}

func (p *PackageLogger) Noticef(format string, args ...interface{}) {
	p.log(NOTICE, format, args...)
}

func (p *PackageLogger) Infof(format string, args ...interface{}) {
	p.log(INFO, format, args...)
}

func (p *PackageLogger) Debugf(format string, args ...interface{}) {
	p.log(DEBUG, format, args...)
}

func (p *PackageLogger) Tracef(format string, args ...interface{}) {
	p.log(TRACE, format, args...)
}

// Fatalf logs at CRITICAL and exits with status 1.
func (p *PackageLogger) Fatalf(format string, args ...interface{}) {
	p.log(CRITICAL, format, args...)
	os.Exit(1)
}

// Panicf logs at CRITICAL and panics.
func (p *PackageLogger) Panicf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	p.log(CRITICAL, "%s", s)
	panic(s)
}
