package ugv

import (
	"errors"
	"fmt"
)

// TransportError means the chassis could not be reached at all: connection
// refused, DNS failure, or a timed-out request. These are the recoverable
// failures the Agent's retry policy applies to.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("ugv: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the chassis answered, but with something the client
// cannot interpret: a bad status, a missing type code, or absent required
// fields. Malformed responses are not expected to self-heal, so these are
// never retried.
type ProtocolError struct {
	// Code is the response type code ("T"), when one was present.
	Code   int
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("ugv: response T=%d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("ugv: %s", e.Reason)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is (or wraps) a ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
