package transform

import (
	"errors"
	"net/http"
)

// Kind classifies a failed transform.
type Kind string

const (
	KindEmptyInput                Kind = "empty_input"
	KindInputTooLong              Kind = "input_too_long"
	KindUnknownPreset             Kind = "unknown_preset"
	KindUpstreamRateLimited       Kind = "upstream_rate_limited"
	KindUpstreamContractViolation Kind = "upstream_contract_violation"
	KindUpstreamTimeout           Kind = "upstream_timeout"
	KindUpstreamUnavailable       Kind = "upstream_unavailable"
	KindInternal                  Kind = "internal"

	// KindNetwork is never produced by the pipeline. Callers use it when
	// their own request to the pipeline fails before a response.
	KindNetwork Kind = "network"
)

const (
	MsgTextRequired = "Text is required"
	MsgRateLimited  = "Rate limit reached. Please wait a moment and try again."
	MsgGeneric      = "Something went wrong. Please try again."
	MsgNetwork      = "Network error. Please check your connection and try again."
)

// HTTPStatus is the status a transform endpoint answers with for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindEmptyInput, KindInputTooLong, KindUnknownPreset:
		return http.StatusBadRequest
	case KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports whether the kind is raised before any upstream call.
func (k Kind) Validation() bool {
	return k.HTTPStatus() == http.StatusBadRequest
}

// Error is the failure variant of a transform. Message is safe to show to users;
// Err carries the internal cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var te *Error
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return MsgGeneric
}
