// Package tassert provides the tiny assertion helpers the teacher's own
// integration tests lean on (tools/tassert), kept minimal on purpose:
// fail-fast wrappers around testing.T rather than a full matcher library.
package tassert

import "testing"

func CheckFatal(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func Errorf(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

func Fatalf(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}
