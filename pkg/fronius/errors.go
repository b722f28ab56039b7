package fronius

import (
	"fmt"
)

// UnsupportedAPIVersionError is returned by Connect when the device reports a
// Solar API revision other than 1.
type UnsupportedAPIVersionError struct {
	Version int
}

func (e *UnsupportedAPIVersionError) Error() string {
	return fmt.Sprintf("unsupported solar api version %d", e.Version)
}

// InvalidEndpointError means an endpoint path could not be resolved against
// the base URL. It indicates a bug, not an operational condition.
type InvalidEndpointError struct {
	Endpoint string
	Err      error
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %v", e.Endpoint, e.Err)
}

func (e *InvalidEndpointError) Unwrap() error {
	return e.Err
}

// RequestError wraps transport failures (DNS, refused connections, timeouts)
// and HTTP failures that did not carry a decodable response.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DecodeError means the device answered but the envelope or the payload did
// not match the expected shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response from %s failed: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ResponseError is returned when the envelope decoded fine but its status
// code was not Okay.
type ResponseError struct {
	Status Status
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("received error response %s (%d): %s", e.Status.Code, int(e.Status.Code), e.Status.Reason)
}

// MissingFieldError is wrapped in a DecodeError when a mandatory field is
// absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing mandatory field %q", e.Field)
}
