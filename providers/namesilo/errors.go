package namesilo

import (
	"errors"
	"fmt"
)

// TransportError reports a failure at the HTTP layer: the request could not
// be sent, or the server answered with a non-2xx status.
type TransportError struct {
	Operation Operation
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("namesilo %s: unexpected HTTP status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("namesilo %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError reports a response the provider rejected or that could not be
// understood. Code is empty when the status field was missing; Payload holds
// the raw response for diagnostics.
type APIError struct {
	Operation Operation
	Code      string
	Detail    string
	Payload   string
	Err       error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("namesilo %s: malformed response: %v", e.Operation, e.Err)
	case e.Code == "":
		return fmt.Sprintf("namesilo %s: response has no status code", e.Operation)
	case e.Detail != "":
		return fmt.Sprintf("namesilo %s: operation failed with code %s: %s", e.Operation, e.Code, e.Detail)
	default:
		return fmt.Sprintf("namesilo %s: operation failed with code %s", e.Operation, e.Code)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UnsupportedOperationError is returned when Execute is asked for an
// operation this client does not implement. No request is sent.
type UnsupportedOperationError struct {
	Operation Operation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("namesilo: unsupported operation %q", string(e.Operation))
}

// IsTransport returns true if err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsAPI returns true if err is or wraps an *APIError.
func IsAPI(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsUnsupportedOperation returns true if err is or wraps an
// *UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	var target *UnsupportedOperationError
	return errors.As(err, &target)
}
