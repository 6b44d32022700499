// Package document renders JSON documents to HTML.
//
// Documents are trees of block, inline and text nodes. Renderer walks the
// tree with golang.org/x/net/html, resolving content references through a
// RefResolver and images through images.Resolver. Themed images render as
// a light/dark pair switched by CSS classes, and high priority images
// contribute preload hints to the Result.
package document
