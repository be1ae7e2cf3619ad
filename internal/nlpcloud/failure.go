package nlpcloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
)

// FailureKind is the classification of a failed upstream call
type FailureKind string

const (
	KindRateLimited      FailureKind = "rate_limited"
	KindServerError      FailureKind = "server_error"
	KindNetworkOrTimeout FailureKind = "network_or_timeout"
	KindClientError      FailureKind = "client_error"
	KindParseError       FailureKind = "parse_error"
	KindConfiguration    FailureKind = "configuration_error"
	KindUnknown          FailureKind = "unknown"
)

// Retryable reports whether a failure of this kind may be attempted again.
// RateLimited is never retried.
func (k FailureKind) Retryable() bool {
	return k == KindServerError || k == KindNetworkOrTimeout
}

func (k FailureKind) String() string {
	return string(k)
}

// StatusError is returned by an attempt that received a non-2xx response.
// The response body is consumed but never retained.
type StatusError struct {
	StatusCode int
	BodyLen    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// ParseError is returned when a 2xx body cannot be decoded into the task shape
type ParseError struct {
	Task TaskKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unable to parse %s payload", e.Task)
	}
	return fmt.Sprintf("unable to parse %s payload: %v", e.Task, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Classify assigns a failure to its kind. It has no side effects.
func Classify(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode)
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return KindParseError
	}

	// Request deadline from the transport or the per-attempt timeout
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetworkOrTimeout
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return KindNetworkOrTimeout
	}

	// *url.Error satisfies net.Error even for a bad scheme or URL, so only
	// its cause decides
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return KindNetworkOrTimeout
		}
		err = urlErr.Err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkOrTimeout
	}

	return KindUnknown
}

func classifyStatus(code int) FailureKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500 && code <= 599:
		return KindServerError
	case code >= 400 && code <= 499:
		return KindClientError
	default:
		return KindUnknown
	}
}
