package logger

import "strings"

// Level is the level at which a logger is configured. Messages below it are
// dropped.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelNames are the names accepted on the command line, indexed by level.
var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "critical", "off"}

// levelTags are the tags written in log headers, indexed by level.
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// LevelFromString returns the level named s, case-insensitively. ok is false,
// and the level is LevelInfo, if s names no level.
func LevelFromString(s string) (l Level, ok bool) {
	s = strings.ToLower(s)
	for level, name := range levelNames {
		if s == name {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the level used in log headers.
func (l Level) String() string {
	if l >= LevelOff {
		return levelTags[LevelOff]
	}
	return levelTags[l]
}
