// Package sizecache remembers discovered image sizes.
//
// A Cache is either in-process (Memory) or shared through redis (Redis).
// Prober wraps any images.Prober with a cache and collapses concurrent
// probes of the same URL.
package sizecache
