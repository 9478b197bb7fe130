// Package monitoring holds the process-wide diagnostic logger the
// analyzers report degradations through (missing channels, filter
// fallbacks, per-file failures in batch runs).
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf; callers that need to redirect or silence diagnostics
// swap it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a
// no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
