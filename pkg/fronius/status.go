package fronius

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatusCode is the outcome reported in the head of every Solar API response.
type StatusCode int

const (
	StatusOkay               StatusCode = 0
	StatusNotImplemented     StatusCode = 1
	StatusUninitialized      StatusCode = 2
	StatusInitialized        StatusCode = 3
	StatusRunning            StatusCode = 4
	StatusTimeout            StatusCode = 5
	StatusArgumentError      StatusCode = 6
	StatusLNRequestError     StatusCode = 7
	StatusLNRequestTimeout   StatusCode = 8
	StatusLNParseError       StatusCode = 9
	StatusConfigIOError      StatusCode = 10
	StatusNotSupported       StatusCode = 11
	StatusDeviceNotAvailable StatusCode = 12
	StatusUnknownError       StatusCode = 255
)

var statusCodeNames = map[StatusCode]string{
	StatusOkay:               "Okay",
	StatusNotImplemented:     "NotImplemented",
	StatusUninitialized:      "Uninitialized",
	StatusInitialized:        "Initialized",
	StatusRunning:            "Running",
	StatusTimeout:            "Timeout",
	StatusArgumentError:      "ArgumentError",
	StatusLNRequestError:     "LNRequestError",
	StatusLNRequestTimeout:   "LNRequestTimeout",
	StatusLNParseError:       "LNParseError",
	StatusConfigIOError:      "ConfigIOError",
	StatusNotSupported:       "NotSupported",
	StatusDeviceNotAvailable: "DeviceNotAvailable",
	StatusUnknownError:       "UnknownError",
}

func (c StatusCode) String() string {
	if name, ok := statusCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(%d)", int(c))
}

// Known reports whether c is one of the documented status codes. Unknown codes
// still decode, they are simply never Okay.
func (c StatusCode) Known() bool {
	_, ok := statusCodeNames[c]
	return ok
}

// UnmarshalJSON only accepts integers. Any integer is accepted so a firmware
// that reports an undocumented code does not break decoding. null is not a
// code.
func (c *StatusCode) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return errors.New("status code is null")
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid status code %s: %w", string(b), err)
	}
	*c = StatusCode(n)
	return nil
}

// Status describes the protocol level outcome of a request, independent of
// the HTTP status.
type Status struct {
	Code        StatusCode `json:"Code"`
	Reason      string     `json:"Reason"`
	UserMessage string     `json:"UserMessage"`
}

// UnmarshalJSON requires Code, a status without one must never read as Okay.
func (s *Status) UnmarshalJSON(b []byte) error {
	if err := requireFields(b, "Code"); err != nil {
		var mf *MissingFieldError
		if errors.As(err, &mf) {
			return &MissingFieldError{Field: "Head.Status.Code"}
		}
		return err
	}
	type plain Status
	return json.Unmarshal(b, (*plain)(s))
}

// Header is the Head section of every response.
type Header struct {
	RequestArguments map[string]any `json:"RequestArguments"`
	Status           *Status        `json:"Status"`
	Timestamp        time.Time      `json:"Timestamp"`
}

// envelope is decoded first for every request. The body stays raw until the
// status was checked.
type envelope struct {
	Head *Header         `json:"Head"`
	Body json.RawMessage `json:"Body"`
}

func (e *envelope) validate() error {
	if e.Head == nil {
		return &MissingFieldError{Field: "Head"}
	}
	if e.Head.Status == nil {
		return &MissingFieldError{Field: "Head.Status"}
	}
	return nil
}
