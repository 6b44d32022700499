// Package server serves the rendering API with gin: middleware, routes,
// the Prometheus endpoint, response compression and graceful shutdown.
package server
