// Package http exposes rendering and image resolution over HTTP.
//
// Routes:
//
//	GET  /health
//	POST /v1/render
//	POST /v1/images/resolve
//	POST /v1/images/picture
//	GET  /v1/stats
package http
