package nlpcloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "429", err: &StatusError{StatusCode: 429}, want: KindRateLimited},
		{name: "500", err: &StatusError{StatusCode: 500}, want: KindServerError},
		{name: "503", err: &StatusError{StatusCode: 503}, want: KindServerError},
		{name: "599", err: &StatusError{StatusCode: 599}, want: KindServerError},
		{name: "400", err: &StatusError{StatusCode: 400}, want: KindClientError},
		{name: "401", err: &StatusError{StatusCode: 401}, want: KindClientError},
		{name: "404", err: &StatusError{StatusCode: 404}, want: KindClientError},
		{name: "499", err: &StatusError{StatusCode: 499}, want: KindClientError},
		{name: "302", err: &StatusError{StatusCode: 302}, want: KindUnknown},
		{name: "wrapped status", err: fmt.Errorf("call: %w", &StatusError{StatusCode: 502}), want: KindServerError},
		{name: "parse error", err: &ParseError{Task: TaskGrammar, Err: errors.New("bad")}, want: KindParseError},
		{name: "deadline", err: context.DeadlineExceeded, want: KindNetworkOrTimeout},
		{name: "unexpected eof", err: fmt.Errorf("read: %w", io.ErrUnexpectedEOF), want: KindNetworkOrTimeout},
		{
			name: "url error",
			err:  &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
			want: KindNetworkOrTimeout,
		},
		{
			name: "url error timeout",
			err:  &url.Error{Op: "Post", URL: "http://x", Err: timeoutError{}},
			want: KindNetworkOrTimeout,
		},
		{
			name: "unsupported scheme",
			err:  &url.Error{Op: "Post", URL: "ftp://x", Err: errors.New(`unsupported protocol scheme "ftp"`)},
			want: KindUnknown,
		},
		{
			name: "wrapped dns failure",
			err:  fmt.Errorf("failed to send request: %w", &url.Error{Op: "Post", URL: "http://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}),
			want: KindNetworkOrTimeout,
		},
		{name: "gateway error keeps kind", err: configError(TaskGrammar, "missing"), want: KindConfiguration},
		{name: "anything else", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFailureKind_Retryable(t *testing.T) {
	retryable := map[FailureKind]bool{
		KindRateLimited:      false,
		KindServerError:      true,
		KindNetworkOrTimeout: true,
		KindClientError:      false,
		KindParseError:       false,
		KindConfiguration:    false,
		KindUnknown:          false,
	}

	for kind, want := range retryable {
		assert.Equal(t, want, kind.Retryable(), kind)
	}
}

func TestStatusError_DoesNotCarryBody(t *testing.T) {
	err := &StatusError{StatusCode: 500, BodyLen: 42}
	assert.Equal(t, "upstream returned status 500 (Internal Server Error)", err.Error())
}
