package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	var captured string
	SetLogger(func(format string, v ...any) {
		captured = fmt.Sprintf(format, v...)
	})
	Logf("hello %d", 42)
	if captured != "hello 42" {
		t.Errorf("captured = %q, want %q", captured, "hello 42")
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	SetLogger(nil)
	// Must not panic.
	Logf("dropped %s", "message")
}
