// Package main runs the document rendering service.
//
// The server exposes:
//   - POST /v1/render: document JSON to HTML
//   - POST /v1/images/resolve: responsive attributes for one image
//   - POST /v1/images/picture: light and dark <img> markup
//   - GET /v1/stats, GET /health, GET /metrics
//
// Configuration:
//   - Defaults, then the optional -config file (YAML or TOML)
//   - Environment variables override both; a .env file is loaded first
//
// Usage:
//
//	./server -config config.yaml
//	IMAGES_RESIZE_ENABLED=true IMAGES_ENDPOINT=https://img.example.com ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
