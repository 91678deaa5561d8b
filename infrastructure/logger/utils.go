package logger

import (
	"time"
)

// LogAndMeasureExecutionTime logs functionName at trace level and returns a
// function that logs how long it took once called. It does nothing unless
// log is at trace level.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	if log.Level() > LevelTrace {
		return func() {}
	}
	start := time.Now()
	log.Tracef("%s start", functionName)
	return func() {
		log.Tracef("%s end. Took: %s", functionName, time.Since(start))
	}
}
