package flickr

import (
	"fmt"
)

// ErrorKind classifies why a Flickr request failed
type ErrorKind int

const (
	// TransportFailure covers network errors, timeouts and unreadable bodies
	TransportFailure ErrorKind = iota
	// HTTPStatusFailure is a non-2xx response
	HTTPStatusFailure
	// APIFailure is a 2xx response whose body reports stat=fail
	APIFailure
)

func (k ErrorKind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case HTTPStatusFailure:
		return "http_status"
	case APIFailure:
		return "api"
	default:
		return "unknown"
	}
}

// APIError is returned for every failed Flickr call
type APIError struct {
	Kind       ErrorKind
	Method     string
	StatusCode int    // set for HTTPStatusFailure
	Code       int    // Flickr error code, set for APIFailure
	Message    string // Flickr error message or response body excerpt
	Err        error  // underlying transport error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case HTTPStatusFailure:
		return fmt.Sprintf("%s returned status %d: %s", e.Method, e.StatusCode, e.Message)
	case APIFailure:
		return fmt.Sprintf("%s returned error: %s (code: %d)", e.Method, e.Message, e.Code)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Method, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}
