package forgehttp

import (
	"fmt"
	"strconv"
	"time"
)

// Validate implements C2: it passes 2xx responses through unchanged and
// turns anything else into a typed, terminal error carrying status, a
// formatted message, and (for 429) the server's Retry-After hint.
//
// This is for callers that sit above or bypass the resiliency layer --
// notably TokenFetcher, whose token request is strictly validated with no
// retry of its own -- and want an exception rather than a raw response.
func Validate(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	message := fmt.Sprintf("The server returned the non-success status code %d (%s).",
		resp.StatusCode, statusReason(resp.StatusCode))
	if len(resp.Body) > 0 {
		message = fmt.Sprintf("%s\nMore error details:\n%s.", message, string(resp.Body))
	}

	if resp.StatusCode == 429 {
		retryAfter, hasRetry := parseRetryAfterDelta(resp.Header.Get("Retry-After"))
		return resp, &TooManyRequestsError{
			StatusCode: resp.StatusCode,
			Message:    message,
			RetryAfter: retryAfter,
			HasRetry:   hasRetry,
		}
	}

	return resp, &HTTPStatusError{StatusCode: resp.StatusCode, Message: message}
}

// parseRetryAfterDelta parses a Retry-After header's delta-seconds form.
// The absolute-HTTP-date form is ignored, per spec.md §9's explicit
// permission to do so.
func parseRetryAfterDelta(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func statusReason(code int) string {
	if text, ok := statusReasons[code]; ok {
		return text
	}
	return "Unknown"
}

var statusReasons = map[int]string{
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	408: "Request Timeout",
	409: "Conflict",
	422: "Unprocessable Entity",
	429: "Too Many Requests",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}
