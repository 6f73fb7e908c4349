package models

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable reports that the real classifier is absent or failed to
// load. The pipeline decides whether to route around it; nothing below the
// pipeline falls back silently.
var ErrModelUnavailable = errors.New("classifier model unavailable")

// DecodeError wraps a failure to decode client-supplied image bytes. It maps
// to a 4xx response at the transport layer.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("image decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InferenceError wraps a failure raised by the real classifier during a
// prediction. It is surfaced to the caller as-is.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is, or wraps, a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
