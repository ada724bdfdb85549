// Package errors provides the structured error type used across rxkit.
//
// Stream failures travel as values inside a Completion and are passed through
// untouched. AppError is reserved for errors the library itself produces:
// protocol violations (raised as panics), transform failures synthesized by
// fallible operators, and configuration problems.
package errors
