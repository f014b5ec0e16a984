package logger

import "time"

// Measure starts a timed scope for a public component operation. The
// returned func emits a single structured event with the operation name and
// elapsed duration when called, so the usual pattern is:
//
//	defer logger.Measure(log, "history.get")()
//
// One event per operation, always at debug level; the operation's own
// logging stays separate.
func Measure(l *Logger, operation string) func() {
	start := time.Now()
	return func() {
		l.zlog.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("operation completed")
	}
}
