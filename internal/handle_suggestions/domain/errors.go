package domain

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidPayload             = errors.New("invalid payload")
	ErrInvalidName                = errors.New("invalid name")
	ErrServerMisconfigured        = errors.New("server misconfigured")
	ErrUpstreamRequestFailed      = errors.New("upstream request failed")
	ErrEmptyUpstreamResponse      = errors.New("empty upstream response")
	ErrMalformedUpstreamContent   = errors.New("malformed upstream content")
	ErrInvalidSuggestionStructure = errors.New("invalid suggestion structure")
	ErrUnexpectedFailure          = errors.New("unexpected failure")
)

// Client-facing messages.
const (
	MsgInvalidPayload     = "Invalid JSON payload."
	MsgNameTooShort       = "Name must be at least two characters long."
	MsgNameTooLong        = "Name must be at most 64 characters long."
	MsgInvalidTone        = "Tone must be one of: professional, playful, edgy."
	MsgInvalidPlatform    = "Platform must be one of: instagram, twitter, tiktok, youtube."
	MsgMissingAPIKey      = "DeepSeek API key is not configured on the server."
	MsgEmptyResponse      = "DeepSeek returned an empty response."
	MsgMalformedContent   = "DeepSeek response was not valid JSON. Try again."
	MsgUnexpectedFailure  = "Failed to contact agent."
	upstreamFailurePrefix = "DeepSeek request failed: "
)

var defaultStatus = map[error]int{
	ErrInvalidPayload:             http.StatusBadRequest,
	ErrInvalidName:                http.StatusBadRequest,
	ErrServerMisconfigured:        http.StatusInternalServerError,
	ErrUpstreamRequestFailed:      http.StatusBadGateway,
	ErrEmptyUpstreamResponse:      http.StatusBadGateway,
	ErrMalformedUpstreamContent:   http.StatusBadGateway,
	ErrInvalidSuggestionStructure: http.StatusBadGateway,
	ErrUnexpectedFailure:          http.StatusBadGateway,
}

// RequestError is a failure that ends a suggestion request. Kind is one of
// the Err* sentinels; Cause, when set, is the underlying error for logs only.
type RequestError struct {
	Kind    error
	Status  int
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return e.Message + " (" + e.Cause.Error() + ")"
	}
	return e.Message
}

func (e *RequestError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewRequestError builds a RequestError with the kind's default status.
func NewRequestError(kind error, message string) *RequestError {
	return &RequestError{Kind: kind, Status: StatusFor(kind), Message: message}
}

// UpstreamError reports a non-success or unreachable completion API.
// status mirrors the upstream status code when one was received.
func UpstreamError(status int, detail string, cause error) *RequestError {
	if status <= 0 {
		status = StatusFor(ErrUpstreamRequestFailed)
	}
	return &RequestError{
		Kind:    ErrUpstreamRequestFailed,
		Status:  status,
		Message: upstreamFailurePrefix + detail,
		Cause:   cause,
	}
}

// UnexpectedError wraps any failure outside the known taxonomy.
func UnexpectedError(cause error) *RequestError {
	return &RequestError{
		Kind:    ErrUnexpectedFailure,
		Status:  StatusFor(ErrUnexpectedFailure),
		Message: MsgUnexpectedFailure,
		Cause:   cause,
	}
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind error) int {
	if s, ok := defaultStatus[kind]; ok {
		return s
	}
	return http.StatusBadGateway
}

// AsRequestError converts any error into a RequestError, treating unknown
// errors as unexpected failures.
func AsRequestError(err error) *RequestError {
	var re *RequestError
	if errors.As(err, &re) {
		return re
	}
	return UnexpectedError(err)
}
