// Package failure defines the error kinds a backup run can end with.
// Every kind is terminal: the run stops and the process exits non-zero.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind string

const (
	KindConfig      Kind = "config"
	KindToolMissing Kind = "tool_missing"
	KindLock        Kind = "lock"
	KindDump        Kind = "dump"
	KindArchive     Kind = "archive"
	KindNotify      Kind = "notify"
)

// Error is a run failure tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrConfig      = &Error{Kind: KindConfig}
	ErrToolMissing = &Error{Kind: KindToolMissing}
	ErrLock        = &Error{Kind: KindLock}
	ErrDump        = &Error{Kind: KindDump}
	ErrArchive     = &Error{Kind: KindArchive}
	ErrNotify      = &Error{Kind: KindNotify}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Config(message string, cause error) *Error      { return New(KindConfig, message, cause) }
func ToolMissing(message string, cause error) *Error { return New(KindToolMissing, message, cause) }
func Lock(message string, cause error) *Error        { return New(KindLock, message, cause) }
func Dump(message string, cause error) *Error        { return New(KindDump, message, cause) }
func Archive(message string, cause error) *Error     { return New(KindArchive, message, cause) }
func Notify(message string, cause error) *Error      { return New(KindNotify, message, cause) }

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
