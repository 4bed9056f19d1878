// Package herrors defines the error taxonomy shared across Helm Commander's
// core packages: a fixed set of Kinds plus a wrapping Error type that carries
// which item (release, secret, resource) an error is about.
//
// Two propagation policies rest on this taxonomy: per-item errors degrade
// (a corrupt release becomes one row with status unknown, not a crash) while
// per-invocation errors abort (ClusterUnreachable, Timeout,
// InvariantViolation). [Aborts] reports which policy a kind implies; [Is]
// tests whether an error carries a given kind.
package herrors

import (
	"errors"
	"fmt"
)

// Kind identifies a category of failure in the taxonomy.
type Kind string

// The fixed error taxonomy. See package doc for the propagation policy each
// kind implies.
const (
	ClusterUnreachable  Kind = "CLUSTER_UNREACHABLE"
	AccessDenied        Kind = "ACCESS_DENIED"
	NotFound            Kind = "NOT_FOUND"
	CorruptPayload      Kind = "CORRUPT_PAYLOAD"
	UnsupportedSchema   Kind = "UNSUPPORTED_SCHEMA"
	UnknownStorage      Kind = "UNKNOWN_STORAGE"
	IOError             Kind = "IO_ERROR"
	ParseError          Kind = "PARSE_ERROR"
	Timeout             Kind = "TIMEOUT"
	InvariantViolation  Kind = "INVARIANT_VIOLATION"
)

// Error is a taxonomy-tagged error naming the item it occurred on.
type Error struct {
	Kind Kind
	Item string
	Err  error
}

func (e *Error) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Item, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind for item, with a plain message.
func New(kind Kind, item, message string) *Error {
	return &Error{Kind: kind, Item: item, Err: errors.New(message)}
}

// Wrap tags an existing error with a taxonomy kind and the item it concerns.
func Wrap(kind Kind, item string, err error) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Item: item, Err: err}
}

// Is reports whether err is (or wraps) a taxonomy Error of the given kind.
func Is(err error, kind Kind) bool {
	var tagged *Error

	if errors.As(err, &tagged) {
		return tagged.Kind == kind
	}

	return false
}

// Aborts reports whether an error of this kind should abort the whole
// invocation rather than degrade to a per-item diagnostic.
func Aborts(kind Kind) bool {
	return kind == ClusterUnreachable || kind == Timeout || kind == InvariantViolation
}
