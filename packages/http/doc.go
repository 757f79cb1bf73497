// Package http is the transport used to issue step requests.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - Request pacing with a token bucket limiter
//   - Fully buffered responses with timing
//   - curl reproduction of a request
package http
