// Package httputil fetches food web files over HTTP.
//
// Inputs to the CLI and pipeline may be URLs as well as paths, so that
// published interaction datasets can be analyzed without a manual download:
//
//	foodweb analyze https://example.org/webs/benguela.json
//
// # Caching
//
// [Fetcher] stores response bodies in a [cache.Cache] under "remote:" keys
// with a one-day TTL by default, so repeated runs do not hit the network.
//
// # Retry
//
// Network errors, 5xx responses and 429 rate limiting are retried with
// [cache.RetryWithBackoff]. A 404 yields a FILE_NOT_FOUND coded error; other
// 4xx responses are returned immediately.
package httputil
