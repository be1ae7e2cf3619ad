package nlpcloud

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWait records requested delays without sleeping
type recordingWait struct {
	delays []time.Duration
}

func (w *recordingWait) wait(ctx context.Context, d time.Duration) error {
	w.delays = append(w.delays, d)
	return ctx.Err()
}

func failingAttempt(calls *int, err error) AttemptFunc {
	return func(ctx context.Context) ([]byte, error) {
		*calls++
		return nil, err
	}
}

func TestRetryExecutor_ServerErrorMakesMaxPlusOneCalls(t *testing.T) {
	for n := 0; n <= 4; n++ {
		t.Run(fmt.Sprintf("max_retries=%d", n), func(t *testing.T) {
			w := &recordingWait{}
			exec := NewRetryExecutor(n, 10*time.Millisecond).WithWait(w.wait)

			calls := 0
			_, err := exec.Execute(context.Background(), TaskGrammar, "/p", failingAttempt(&calls, &StatusError{StatusCode: 500}))

			require.Error(t, err)
			assert.Equal(t, n+1, calls)
			assert.Len(t, w.delays, n)

			var gwErr *GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, KindServerError, gwErr.Kind)
			assert.Equal(t, MessageUnavailable, gwErr.SafeMessage)
		})
	}
}

func TestRetryExecutor_RateLimitIsNeverRetried(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("max_retries=%d", n), func(t *testing.T) {
			w := &recordingWait{}
			exec := NewRetryExecutor(n, 10*time.Millisecond).WithWait(w.wait)

			calls := 0
			_, err := exec.Execute(context.Background(), TaskKeywords, "/p", failingAttempt(&calls, &StatusError{StatusCode: 429}))

			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, w.delays)
			assert.Equal(t, KindRateLimited, Classify(err))
		})
	}
}

func TestRetryExecutor_DelaysDouble(t *testing.T) {
	w := &recordingWait{}
	base := 10 * time.Millisecond
	exec := NewRetryExecutor(4, base).WithWait(w.wait)

	calls := 0
	_, err := exec.Execute(context.Background(), TaskSummarize, "/p", failingAttempt(&calls, &StatusError{StatusCode: 503}))
	require.Error(t, err)

	assert.Equal(t, []time.Duration{base, 2 * base, 4 * base, 8 * base}, w.delays)
	for i := 1; i < len(w.delays); i++ {
		assert.Greater(t, w.delays[i], w.delays[i-1])
	}
}

func TestRetryExecutor_DefaultBaseDelay(t *testing.T) {
	w := &recordingWait{}
	exec := NewRetryExecutor(2, 0).WithWait(w.wait)

	calls := 0
	_, _ = exec.Execute(context.Background(), TaskGrammar, "/p", failingAttempt(&calls, &StatusError{StatusCode: 500}))

	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, w.delays)
}

func TestRetryExecutor_NetworkErrorIsRetried(t *testing.T) {
	w := &recordingWait{}
	exec := NewRetryExecutor(3, time.Millisecond).WithWait(w.wait)

	netErr := &url.Error{Op: "Post", URL: "http://upstream", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
	calls := 0
	body, err := exec.Execute(context.Background(), TaskEntities, "/p", func(ctx context.Context) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, netErr
		}
		return []byte(`{"entities":[]}`), nil
	})

	require.NoError(t, err)
	assert.Equal(t, `{"entities":[]}`, string(body))
	assert.Equal(t, 3, calls)
	assert.Len(t, w.delays, 2)
}

func TestRetryExecutor_FatalKindsStopImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "client error", err: &StatusError{StatusCode: 400}, want: KindClientError},
		{name: "parse error", err: &ParseError{Task: TaskGrammar}, want: KindParseError},
		{name: "unknown", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWait{}
			exec := NewRetryExecutor(3, time.Millisecond).WithWait(w.wait)

			calls := 0
			_, err := exec.Execute(context.Background(), TaskGrammar, "/p", failingAttempt(&calls, tt.err))
			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.want, Classify(err))
			assert.Empty(t, w.delays)
		})
	}
}

func TestRetryExecutor_NegativeMaxRetriesMeansOneAttempt(t *testing.T) {
	exec := NewRetryExecutor(-3, time.Millisecond)
	assert.Equal(t, 0, exec.MaxRetries())

	calls := 0
	_, err := exec.Execute(context.Background(), TaskGrammar, "/p", failingAttempt(&calls, &StatusError{StatusCode: 500}))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExecutor_CancelDuringWaitAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := NewRetryExecutor(5, time.Hour)

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(ctx, TaskGrammar, "/p", failingAttempt(&calls, &StatusError{StatusCode: 502}))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, KindServerError, Classify(err))
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not stop after cancellation")
	}
}

func TestRetryExecutor_CanceledContextSkipsAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := NewRetryExecutor(2, time.Millisecond).Execute(ctx, TaskGrammar, "/p", failingAttempt(&calls, nil))
	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryExecutor_SucceedsAfterServerErrors(t *testing.T) {
	w := &recordingWait{}
	exec := NewRetryExecutor(2, time.Millisecond).WithWait(w.wait)

	calls := 0
	body, err := exec.Execute(context.Background(), TaskGrammar, "/p", func(ctx context.Context) ([]byte, error) {
		calls++
		if calls <= 2 {
			return nil, &StatusError{StatusCode: 500}
		}
		return []byte("ok"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 3, calls)
}
