// Package forgehttp is the resilient authenticated HTTP client core for a
// cloud design/engineering platform's service APIs. It interposes on every
// outbound request to provide, transparently to callers: automatic
// acquisition and caching of OAuth2 client-credentials bearer tokens per
// (agent, scope) pair; resiliency against transient upstream failures via a
// composed timeout/retry/circuit-breaker policy; and reactive
// reauthentication on a 401 via a single forced refresh and resend.
//
// The five collaborating pieces are TokenCache (process-local token
// storage), ResponseValidator (turns a non-2xx response into a typed
// error), TokenFetcher (the OAuth2 client-credentials exchange),
// ResiliencyPolicy (breaker ⊃ retry ⊃ timeout), and AuthHandler, the public
// entry point that ties the rest together.
package forgehttp
