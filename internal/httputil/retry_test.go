package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fastRetry keeps backoff delays negligible so failure paths run in
// milliseconds.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
	}
}

func getReq(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"price":"65000"}`)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), srv.Client(), fastRetry(3), getReq(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_RecoversFromServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), srv.Client(), fastRetry(3), getReq(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDo_ExhaustsAttemptsOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer srv.Close()

	_, err := Do(context.Background(), srv.Client(), fastRetry(4), getReq(srv.URL))
	require.Error(t, err)

	assert.Equal(t, int32(4), attempts.Load())
	// The upstream body survives into the final error for diagnostics.
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), srv.Client(), fastRetry(5), getReq(srv.URL))
	require.NoError(t, err, "4xx is the caller's problem, not a transient failure")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_NetworkErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection reset by peer")
		}),
	}

	_, err := Do(context.Background(), client, fastRetry(3), getReq("http://exchange.invalid/ticker"))
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_BuildRequestFailureIsPermanent(t *testing.T) {
	var builds atomic.Int32
	_, err := Do(context.Background(), http.DefaultClient, fastRetry(5), func() (*http.Request, error) {
		builds.Add(1)
		return nil, errors.New("body marshal failed")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "build request")
	assert.Equal(t, int32(1), builds.Load(), "a request that cannot be built will never succeed")
}

func TestDo_ContextDeadlineCutsBackoffShort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}

	start := time.Now()
	_, err := Do(ctx, srv.Client(), cfg, getReq(srv.URL))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Second, "deadline must interrupt the backoff wait, not ride it out")
}

func TestDo_ZeroConfigFallsBackToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), srv.Client(), RetryConfig{}, getReq(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
