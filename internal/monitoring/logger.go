// Package monitoring holds the process-wide diagnostic logger shared by the
// tracking and analytics packages.
package monitoring

import "log"

// Logf is the diagnostic logger used across the repository. It defaults to
// log.Printf; tests and embedding applications can swap it via SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger, which mutes all diagnostics.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
