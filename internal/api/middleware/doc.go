// Package middleware holds the gin middleware of the public API: CORS,
// rate limiting and request IDs.
package middleware
