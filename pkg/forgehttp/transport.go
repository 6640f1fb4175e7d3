package forgehttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is the interposer's own request shape: an http.Request is not
// reused directly so the retry and auth-refresh layers can resend the same
// logical request any number of times without worrying about a body that
// was already drained by a prior attempt.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Header returns the current value of a header, matching http.Header.Get's
// case-insensitive lookup semantics.
func (r *Request) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// SetHeader sets (overwriting) a header on the request.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Set(key, value)
}

// Response is the interposer's own response shape: status, headers, and a
// fully-drained body, so that ResponseValidator and the retry layer can
// both inspect it without racing over an io.ReadCloser.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Sender sends a single Request and returns its Response or a transport-level
// error (DNS, socket, TLS, abrupt close, ...). It never interprets status
// codes itself -- that is ResponseValidator's and the retry layer's job.
//
// Every layer of ResiliencyPolicy is expressed as a function that wraps a
// Sender and returns another Sender, per spec.md's "delegating handler chain"
// design note; AuthHandler.Send applies its token and 401-refresh steps
// inline around the wrapped Sender.
type Sender func(ctx context.Context, req *Request) (*Response, error)

// NewRestySender builds a Sender backed by go-resty/resty. timeout, when
// non-zero, is applied to the underlying resty.Client -- callers normally
// leave it zero here and let the timeout policy layer impose its own bound
// per attempt instead, since resty's client-level timeout would apply across
// retries within a single resty call rather than per attempt.
func NewRestySender(timeout time.Duration) Sender {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return func(ctx context.Context, req *Request) (*Response, error) {
		r := client.R().SetContext(ctx)
		for key, values := range req.Headers {
			for _, v := range values {
				r.SetHeader(key, v)
			}
		}
		if req.Body != nil {
			r.SetBody(req.Body)
		}

		resp, err := r.Execute(req.Method, req.URL)
		if err != nil {
			return nil, err
		}

		return &Response{
			StatusCode: resp.StatusCode(),
			Header:     resp.Header(),
			Body:       resp.Body(),
		}, nil
	}
}
