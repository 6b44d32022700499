// Package main renders documents from the command line.
//
// A single document is written to stdout as HTML, or as a node tree with
// -tree. With -dir every document matching -pattern is rendered to a
// sibling .html file, or below -out when set.
//
// Usage:
//
//	./render page.json
//	./render -tree page.json
//	./render -dir content -pattern 'guides/**/*.json' -out public
package main
