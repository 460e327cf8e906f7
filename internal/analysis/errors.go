package analysis

import (
	"errors"
	"fmt"
)

// InvalidInputKind classifies caller-correctable validation failures.
type InvalidInputKind string

const (
	KindNotAnImage        InvalidInputKind = "not_an_image"
	KindMalformedProducts InvalidInputKind = "malformed_products"
	KindMissingField      InvalidInputKind = "missing_field"
	KindTooManyProducts   InvalidInputKind = "too_many_products"
)

// InvalidInputError is returned by request validation. ProductNames carries
// whatever names were parsed before the failing check, so the log entry for a
// rejected request is as informative as possible.
type InvalidInputError struct {
	Kind         InvalidInputKind
	Msg          string
	ProductNames []string
}

func (e *InvalidInputError) Error() string { return e.Msg }

// ErrUpstreamTimeout indicates the model did not respond within the deadline.
var ErrUpstreamTimeout = errors.New("model did not respond within the deadline")

// UpstreamError wraps any model call failure other than a timeout.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("model call failed: %v", e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }
