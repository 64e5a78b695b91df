package common

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrNotCandidate means a directory entry does not match the vendor
// naming glob and should be ignored without comment.
var ErrNotCandidate = errors.New("entry is not an import candidate")

// ErrCleanupDisabled is returned when catalog cleanup is requested but
// no database is configured.
var ErrCleanupDisabled = errors.New("catalog cleanup is disabled: DATABASE_URL is not set")

type DetailedError interface {
	Detail() string
}

// Error is a custom error type that includes some additional fields
// to help us debug. See the Detail method.
type Error struct {
	Err     error
	File    string
	IsFatal bool
	Line    int
	Message string
}

func NewError(message string, err error, isFatal bool) *Error {
	_, file, line, _ := runtime.Caller(1)
	return &Error{
		Err:     err,
		File:    file,
		IsFatal: isFatal,
		Line:    line,
		Message: message,
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return e.Message
}

// This returns a detailed error message.
func (e *Error) Detail() string {
	prefix := ""
	if e.IsFatal {
		prefix = "FATAL: "
	}
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s%s [%s:%d] %s",
		prefix, e.Message, e.File, e.Line, underlyingError)
}

// ListingErrorKind classifies why a storage provider could not list
// the import directory.
type ListingErrorKind int

const (
	ListingErrorUnknown ListingErrorKind = iota
	ListingErrorAuth
	ListingErrorNotFound
	ListingErrorQuota
	ListingErrorRateLimit
	ListingErrorNetwork
)

func (k ListingErrorKind) String() string {
	switch k {
	case ListingErrorAuth:
		return "auth"
	case ListingErrorNotFound:
		return "not-found"
	case ListingErrorQuota:
		return "quota"
	case ListingErrorRateLimit:
		return "rate-limit"
	case ListingErrorNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ListingError is fatal to an import run. Nothing is dispatched once
// a ListingError occurs, and the run is not retried.
type ListingError struct {
	Directory string
	Err       error
	Kind      ListingErrorKind
	Provider  string
}

func NewListingError(provider, directory string, kind ListingErrorKind, err error) *ListingError {
	return &ListingError{
		Directory: directory,
		Err:       err,
		Kind:      kind,
		Provider:  provider,
	}
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("%s listing of '%s' failed (%s): %v",
		e.Provider, e.Directory, e.Kind, e.Err)
}

func (e *ListingError) Detail() string {
	return fmt.Sprintf("FATAL: %s [provider=%s kind=%s]", e.Error(), e.Provider, e.Kind)
}

// ExtractionError means an entry matched the vendor glob but no
// external id could be pulled from its name. The entry is skipped.
type ExtractionError struct {
	Filename string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract iStock id from '%s': expected iStock_<id>_<suffix>", e.Filename)
}

// DispatchError wraps a queue transport failure for one asset. It never
// stops the remaining dispatches in a run.
type DispatchError struct {
	Err      error
	Filename string
	Payload  string
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch of '%s' failed: %v", e.Filename, e.Err)
}

func (e *DispatchError) Detail() string {
	return fmt.Sprintf("%s (Payload: %s)", e.Error(), e.Payload)
}
