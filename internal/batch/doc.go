// Package batch renders trees of JSON documents to HTML files with
// bounded concurrency. Each document is rendered inside a "batch.render"
// trace.
package batch
