package forgehttp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TokenFetcher obtains a fresh bearer token from the configured OAuth2
// token endpoint via the two-legged (client-credentials) grant. It is C3.
type TokenFetcher struct {
	config *Config
	send   Sender
}

// NewTokenFetcher builds a TokenFetcher that sends its token requests over
// send.
func NewTokenFetcher(config *Config, send Sender) *TokenFetcher {
	return &TokenFetcher{config: config, send: send}
}

// tokenResponse is the JSON shape of the token endpoint's success body.
type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Get2Legged implements §4.3: resolve credentials for agent, POST a
// client-credentials grant for scope to the authentication address (through
// the same ResiliencyPolicy used for data calls, but without the auth-refresh
// wrapper), validate strictly, and return the combined "<type> <access>"
// token plus its TTL. policy is whichever ResiliencyPolicy the caller
// selected for this logical operation (the instance default, or a per-call
// custom-timeout one), so a custom timeout applies uniformly to the token
// fetch and the data call it's guarding.
func (f *TokenFetcher) Get2Legged(ctx context.Context, policy *ResiliencyPolicy, agent, scope string) (token string, ttl time.Duration, err error) {
	clientID, clientSecret, err := f.config.resolveCredentials(agent)
	if err != nil {
		return "", 0, err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", scope)

	basic := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))

	req := &Request{
		Method: http.MethodPost,
		URL:    f.config.AuthenticationAddress,
		Headers: http.Header{
			"Authorization": []string{"Basic " + basic},
			"Content-Type":  []string{"application/x-www-form-urlencoded"},
		},
		Body: []byte(form.Encode()),
	}

	send := policy.Wrap(f.send)
	resp, err := send(ctx, req)
	if err != nil {
		return "", 0, &TokenFetchError{Message: "token request failed", Cause: err}
	}

	if _, verr := Validate(resp); verr != nil {
		return "", 0, &TokenFetchError{Message: "token endpoint returned a non-success response", Cause: verr}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", 0, &TokenFetchError{Message: "failed to parse token response", Cause: err}
	}
	if parsed.TokenType == "" || parsed.AccessToken == "" {
		return "", 0, &TokenFetchError{Message: "token response missing token_type or access_token"}
	}

	return fmt.Sprintf("%s %s", parsed.TokenType, parsed.AccessToken), time.Duration(parsed.ExpiresIn) * time.Second, nil
}
