// Package auth provides API-key authentication middleware for the wearguard
// HTTP API.
//
// APIKey(mode, header, key, exempt...) wraps an http.Handler and validates
// the key carried in the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). Paths listed in exempt (health
// checks, /metrics) are never checked. A missing or incorrect key gets a
// 401 JSON error before the wrapped handler runs.
package auth
