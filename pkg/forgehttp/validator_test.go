package forgehttp

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_PassesThrough2xxUnchanged(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte("ok")}

	got, err := Validate(resp)

	require.NoError(t, err)
	assert.Same(t, resp, got)
}

func TestValidate_204NoContentPassesThrough(t *testing.T) {
	resp := &Response{StatusCode: 204}

	_, err := Validate(resp)

	require.NoError(t, err)
}

func TestValidate_GenericNonSuccessBecomesHTTPStatusError(t *testing.T) {
	resp := &Response{StatusCode: 404, Body: []byte("not found")}

	_, err := Validate(resp)

	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 404, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "404")
	assert.Contains(t, statusErr.Message, "not found")
}

func TestValidate_EmptyBodyOmitsErrorDetailsClause(t *testing.T) {
	resp := &Response{StatusCode: 500}

	_, err := Validate(resp)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "More error details")
}

func TestValidate_429BecomesTooManyRequestsWithRetryAfter(t *testing.T) {
	resp := &Response{
		StatusCode: 429,
		Header:     http.Header{"Retry-After": []string{"2"}},
		Body:       []byte("slow down"),
	}

	_, err := Validate(resp)

	require.Error(t, err)
	var tooMany *TooManyRequestsError
	require.True(t, errors.As(err, &tooMany))
	assert.True(t, tooMany.HasRetry)
	assert.Equal(t, 2*time.Second, tooMany.RetryAfter)
}

func TestValidate_429WithoutRetryAfterHeader(t *testing.T) {
	resp := &Response{StatusCode: 429}

	_, err := Validate(resp)

	var tooMany *TooManyRequestsError
	require.True(t, errors.As(err, &tooMany))
	assert.False(t, tooMany.HasRetry)
}

func TestValidate_429WithHTTPDateRetryAfterIsIgnored(t *testing.T) {
	resp := &Response{
		StatusCode: 429,
		Header:     http.Header{"Retry-After": []string{"Wed, 21 Oct 2026 07:28:00 GMT"}},
	}

	_, err := Validate(resp)

	var tooMany *TooManyRequestsError
	require.True(t, errors.As(err, &tooMany))
	assert.False(t, tooMany.HasRetry)
}

func TestValidate_StatusRoundTripPreservesStatusCode(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 429, 500, 503} {
		resp := &Response{StatusCode: status}
		_, err := Validate(resp)
		require.Error(t, err)

		var statusErr *HTTPStatusError
		var tooMany *TooManyRequestsError
		switch {
		case errors.As(err, &tooMany):
			assert.Equal(t, status, tooMany.StatusCode)
		case errors.As(err, &statusErr):
			assert.Equal(t, status, statusErr.StatusCode)
		default:
			t.Fatalf("unexpected error type for status %d: %v", status, err)
		}
	}
}
