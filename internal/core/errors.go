package core

import "github.com/go-faster/errors"

// FatalError marks a programming error per spec §7: illegal transitions,
// illegal restores, wrong-type restore payloads and unexpected ticks are
// not recoverable engine states, so the caller panics with a FatalError
// rather than attempting to continue with corrupted state. A recovering
// caller (e.g. a top-level supervisor) can still unwrap it.
type FatalError struct {
	err error
}

func newFatal(msg string) *FatalError { return &FatalError{err: errors.New(msg)} }

func newFatalf(format string, args ...any) *FatalError {
	return &FatalError{err: errors.Errorf(format, args...)}
}

func (f *FatalError) Error() string { return f.err.Error() }
func (f *FatalError) Unwrap() error { return f.err }
