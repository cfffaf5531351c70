// Package errors provides the classified error primitives used across pinningd.
//
// Every failure that crosses a component boundary (seed storage, backend publish,
// DNS provider calls, configuration loading) is expressed as a ClassifiedError so
// that the pass runner can log it with a stable category and the admin API and CLI
// can map it to status and exit codes.
//
// Example usage:
//
//	err := errors.NewError(errors.CategorySeed, "seed file unreadable").
//		WithContext("path", seedPath).
//		WithCause(readErr).
//		Build()
package errors
