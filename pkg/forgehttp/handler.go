package forgehttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// AuthHandler is the public interposer (C5): for each outbound request it
// selects the effective ResiliencyPolicy, optionally acquires and attaches a
// bearer token, executes the request, and applies the one-shot
// auth-refresh-on-401 retry around the resiliency policy.
type AuthHandler struct {
	config  *Config
	cache   *TokenCache
	fetcher *TokenFetcher
	send    Sender

	// defaultPolicy is shared by every call that doesn't override the
	// per-attempt timeout; its breaker state is therefore shared process-
	// wide across this AuthHandler instance, per §3's invariant.
	defaultPolicy *ResiliencyPolicy

	// refreshSem is the single process-wide (per AuthHandler instance)
	// counting primitive of capacity 1 from §5 protecting the compound
	// action TryGet;if-miss fetch;Add. It is deliberately coarse: at most
	// one credential acquisition is in flight at a time, for any key. A
	// channel rather than sync.Mutex so a waiter blocked on acquisition can
	// still observe ctx.Done() and abandon the wait.
	refreshSem chan struct{}

	logger *slog.Logger
}

// Option configures an AuthHandler at construction.
type Option func(*AuthHandler)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *AuthHandler) { h.logger = logger }
}

// WithSender overrides the default resty-backed Sender, e.g. for tests.
func WithSender(send Sender) Option {
	return func(h *AuthHandler) { h.send = send }
}

// NewAuthHandler builds an AuthHandler over config. config must not be
// mutated afterwards; it is shared read-only by every call this handler
// serves.
func NewAuthHandler(config *Config, opts ...Option) *AuthHandler {
	h := &AuthHandler{
		config:        config,
		cache:         NewTokenCache(),
		defaultPolicy: NewResiliencyPolicy(DefaultTimeout),
		refreshSem:    make(chan struct{}, 1),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.send == nil {
		h.send = NewRestySender(0)
	}
	h.fetcher = NewTokenFetcher(config, h.send)
	return h
}

// Send is the public entry point: inspect per-request options, optionally
// acquire a token under the refresh critical section, attach it, and
// execute the request through the resiliency policy wrapped in the one-shot
// auth-refresh policy.
func (h *AuthHandler) Send(ctx context.Context, req *Request, opts RequestOptions) (*Response, error) {
	if req.URL == "" {
		return nil, &InvalidArgumentError{Field: "URI", Message: "must not be empty"}
	}

	correlationID := uuid.NewString()
	logger := h.logger.With("correlation_id", correlationID)

	policy := h.policyFor(opts)
	authManaged := opts.Scope != ""

	if req.Header("Authorization") == "" && authManaged {
		if err := h.ensureToken(ctx, logger, req, opts, policy, false); err != nil {
			return nil, err
		}
	}

	send := policy.Wrap(h.send)

	resp, err := send(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && authManaged {
		logger.Info("received 401 on an auth-managed request, forcing token refresh")
		if err := h.ensureToken(ctx, logger, req, opts, policy, true); err != nil {
			return resp, err
		}
		// EXECUTE' is terminal: no second 401 refresh regardless of outcome.
		return send(ctx, req)
	}

	return resp, nil
}

// policyFor implements §4.5 step 1: a custom per-request timeout gets a
// fresh ResiliencyPolicy (and therefore an independent breaker scope); the
// absence of one reuses the instance-wide default policy and its shared
// breaker. This is by design per spec.md's Open Question resolution
// (DESIGN.md): non-standard timeouts are exceptional and shouldn't pollute
// the global breaker.
func (h *AuthHandler) policyFor(opts RequestOptions) *ResiliencyPolicy {
	if opts.Timeout > 0 {
		return NewResiliencyPolicy(opts.Timeout)
	}
	return h.defaultPolicy
}

// ensureToken implements §4.5's ensureToken: compute the cache key, enter
// the process-wide refresh critical section, serve from cache unless
// forceRefresh or the entry is missing/expired, otherwise fetch a fresh
// token and insert it, then attach it to req. policy is the same
// ResiliencyPolicy Send selected for the data call, so a custom timeout
// applies uniformly to the token fetch and the call it's guarding.
// Cancellation is honored while waiting to enter the critical section, not
// just before it: a goroutine blocked on another's acquisition abandons the
// wait as soon as ctx is done.
func (h *AuthHandler) ensureToken(ctx context.Context, logger *slog.Logger, req *Request, opts RequestOptions, policy *ResiliencyPolicy, forceRefresh bool) error {
	key := opts.cacheKey()

	select {
	case h.refreshSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-h.refreshSem }()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !forceRefresh {
		if token, found := h.cache.TryGet(key); found {
			logger.Debug("token cache hit", "cache_key", key)
			req.SetHeader("Authorization", token)
			return nil
		}
	}
	logger.Debug("token cache miss, fetching", "cache_key", key, "forced", forceRefresh)

	token, ttl, err := h.fetcher.Get2Legged(ctx, policy, opts.Agent, opts.Scope)
	if err != nil {
		return err
	}

	h.cache.Add(key, token, ttl)
	logger.Info("token refreshed", "cache_key", key, "ttl_seconds", ttl.Seconds())

	req.SetHeader("Authorization", token)
	return nil
}
