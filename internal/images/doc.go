/*
Package images resolves responsive image attributes.

# Overview

Resolve turns an image source and a list of breakpoints into the src,
srcset and sizes attributes of an img element, plus width/height or
aspect-ratio hints that keep the layout stable while the image loads.

	res, err := images.Resolve(ctx,
		images.Source{URL: "https://example.com/cover.png"},
		[]images.Breakpoint{
			{Media: "(max-width: 768px)", Width: 768},
			{Width: 1248},
		},
		images.Options{
			ResizeEnabled: true,
			URLBuilder:    images.SignedURLBuilder("https://img.example.com", key),
			Probe:         prober,
		})

	// res.Sizes == "(max-width: 768px) 768px, 1248px"
	// res.SourceSet holds 8 entries, 2 breakpoints x 4 densities

# Sizes

A Source with a nil Size is probed once through the Prober. Probe
failures are logged and the image renders without size hints. A discovered
size is returned in Resolved.Size, never written back to the Source.

# Resolver

Resolver binds the URL builder, prober, feature Flag, tracer and metrics
together. Picture resolves the light and dark variants of a themed image
and computes loading hints and preloads.
*/
package images
