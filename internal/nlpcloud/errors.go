package nlpcloud

import (
	"errors"
	"net/http"
)

// Caller-facing messages. None of them carry upstream content.
const (
	MessageUnavailable = "Unable to process NLP request at this time. Please try again later."
	MessageRateLimited = "NLP Cloud rate limit exceeded. Please retry later."
	MessageUnexpected  = "An unexpected error occurred"
	MessageMissingKey  = "NLP Cloud API key is missing. Please configure 'nlpcloud.api_key'."
)

// GatewayError is the terminal failure of one logical gateway call.
// It is never mutated after creation.
type GatewayError struct {
	Kind        FailureKind
	Task        TaskKind
	SafeMessage string
	Cause       error
}

// Error returns only the safe message so the cause never leaks through %v.
func (e *GatewayError) Error() string {
	return e.SafeMessage
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

func newGatewayError(task TaskKind, kind FailureKind, cause error) *GatewayError {
	return &GatewayError{
		Kind:        kind,
		Task:        task,
		SafeMessage: safeMessage(kind),
		Cause:       cause,
	}
}

func configError(task TaskKind, message string) *GatewayError {
	return &GatewayError{
		Kind:        KindConfiguration,
		Task:        task,
		SafeMessage: message,
	}
}

func safeMessage(kind FailureKind) string {
	switch kind {
	case KindRateLimited:
		return MessageRateLimited
	case KindServerError, KindNetworkOrTimeout:
		return MessageUnavailable
	default:
		return MessageUnexpected
	}
}

// ExternalError is the envelope shown to API callers
type ExternalError struct {
	StatusCode int
	Message    string
}

// ToExternal maps a gateway failure to an HTTP status and a safe message.
// Upstream-origin failures are reported as 503; everything else as 500.
func ToExternal(err error) ExternalError {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return ExternalError{StatusCode: http.StatusInternalServerError, Message: MessageUnexpected}
	}

	switch gwErr.Kind {
	case KindRateLimited:
		return ExternalError{StatusCode: http.StatusServiceUnavailable, Message: MessageRateLimited}
	case KindServerError, KindNetworkOrTimeout:
		return ExternalError{StatusCode: http.StatusServiceUnavailable, Message: MessageUnavailable}
	case KindConfiguration:
		msg := gwErr.SafeMessage
		if msg == "" {
			msg = MessageUnexpected
		}
		return ExternalError{StatusCode: http.StatusInternalServerError, Message: msg}
	default:
		return ExternalError{StatusCode: http.StatusInternalServerError, Message: MessageUnexpected}
	}
}
