package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger writing to a Backend. Messages below the
// logger's level are discarded before any formatting takes place.
type Logger struct {
	lvl Level // atomic
	tag string
	b   *Backend
}

// Trace formats message using the default formats for its operands, prepends
// the prefix as necessary, and writes to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.Write(LevelTrace, args...) }

// Tracef formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.Writef(LevelTrace, format, args...) }

// Debug writes to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.Write(LevelDebug, args...) }

// Debugf writes to log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.Writef(LevelDebug, format, args...) }

// Info writes to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.Write(LevelInfo, args...) }

// Infof writes to log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.Writef(LevelInfo, format, args...) }

// Warn writes to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.Write(LevelWarn, args...) }

// Warnf writes to log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.Writef(LevelWarn, format, args...) }

// Error writes to log with LevelError.
func (l *Logger) Error(args ...interface{}) { l.Write(LevelError, args...) }

// Errorf writes to log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.Writef(LevelError, format, args...) }

// Critical writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) { l.Write(LevelCritical, args...) }

// Criticalf writes to log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Writef(LevelCritical, format, args...)
}

// Write formats message using the default formats for its operands and
// writes it at logLevel.
func (l *Logger) Write(logLevel Level, args ...interface{}) {
	if l.Level() <= logLevel {
		l.print(logLevel, fmt.Sprint(args...))
	}
}

// Writef formats message according to format specifier and writes it at
// logLevel.
func (l *Logger) Writef(logLevel Level, format string, args ...interface{}) {
	if l.Level() <= logLevel {
		l.print(logLevel, fmt.Sprintf(format, args...))
	}
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

// Backend returns the log backend
func (l *Logger) Backend() *Backend {
	return l.b
}

func (l *Logger) print(level Level, message string) {
	var file string
	var line int
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line = callsite(l.b.flag)
	}

	buf := &bytes.Buffer{}
	formatHeader(buf, time.Now(), level.String(), l.tag, file, line)
	buf.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		buf.WriteByte('\n')
	}
	l.b.write(logEntry{log: buf.Bytes(), level: level})
}

// formatHeader writes a header in the default logger format:
// 2006-01-02 15:04:05.000 [LVL] TAG: file.go:123
func formatHeader(buf *bytes.Buffer, t time.Time, lvl, tag string, file string, line int) {
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(lvl)
	buf.WriteString("] ")
	buf.WriteString(tag)
	if file != "" {
		buf.WriteByte(' ')
		buf.WriteString(file)
		buf.WriteByte(':')
		fmt.Fprintf(buf, "%d", line)
	}
	buf.WriteString(": ")
}

// calldepth is the call depth of the callsite function relative to the
// caller of the subsystem logger.
const calldepth = 4

// callsite returns the file name and line number of the callsite to the
// subsystem logger.
func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(calldepth)
	if !ok {
		return "???", 0
	}
	if flag&LogFlagShortFile != 0 {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if os.IsPathSeparator(file[i]) {
				short = file[i+1:]
				break
			}
		}
		file = short
	}
	return file, line
}
