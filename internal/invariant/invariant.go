// Package invariant provides contract assertions for the Vela parser core.
//
// Assertions here are a force multiplier for discovering bugs: use
// Precondition/Postcondition to express function contracts and Invariant for
// internal consistency checks. All functions panic on violation - these are
// programming errors (bugs in the parser), never user-facing syntax errors.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
//
// Use this for loop progress checks, state consistency, and internal logic -
// in particular the ParseStream peek_count progress guard. (The tree
// builder's single-root check uses Postcondition.)
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// fail panics with a formatted message including call stack context.
func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)

	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
