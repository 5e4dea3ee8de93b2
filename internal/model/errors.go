package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a task failure. Only KindNetwork is retryable; every
// other kind is terminal for the task that produced it.
type ErrorKind string

const (
	// KindMalformedURL means the viewer URL could not be decoded
	KindMalformedURL ErrorKind = "malformed_url"

	// KindNetwork covers connection failures and timeouts
	KindNetwork ErrorKind = "network"

	// KindSignatureExpired means the signed link window elapsed or the IP no
	// longer matches (HTTP 401/403 on the file response)
	KindSignatureExpired ErrorKind = "signature_expired"

	// KindNotFound means the record does not exist (HTTP 404)
	KindNotFound ErrorKind = "not_found"

	// KindUnexpectedStatus covers any other non-2xx file response
	KindUnexpectedStatus ErrorKind = "unexpected_status"

	// KindDirectoryUnavailable means the destination directory cannot be
	// created or written; fatal for the whole run
	KindDirectoryUnavailable ErrorKind = "directory_unavailable"

	// KindWriteFailure means the payload could not be written to disk
	KindWriteFailure ErrorKind = "write_failure"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// Retryable returns true if a failure of this kind may succeed on a later
// attempt. Expired signatures and missing records never do.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork
}

// FetchError is the error type carried through the fetch pipeline. It keeps
// the classification and, for HTTP-level failures, the response status.
type FetchError struct {
	Kind       ErrorKind
	HTTPStatus int
	Message    string
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFetchError creates a FetchError with a formatted message
func NewFetchError(kind ErrorKind, format string, args ...interface{}) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewStatusError creates a FetchError classified from an HTTP status code
func NewStatusError(status int, format string, args ...interface{}) *FetchError {
	return &FetchError{
		Kind:       KindForStatus(status),
		HTTPStatus: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

// KindForStatus maps a non-2xx HTTP status on the file response to an
// ErrorKind. The server does not distinguish expired signatures from IP
// mismatches, so both 401 and 403 are reported uniformly.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindSignatureExpired
	case status == 404:
		return KindNotFound
	default:
		return KindUnexpectedStatus
	}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors are
// reported as KindNetwork so they stay on the retryable path.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}
