/*
Package probe discovers the natural size of remote images.

A Prober fetches at most MaxBytes of an image with a Range request, detects
its type and decodes the header: GIF, JPEG, PNG, WebP, BMP and TIFF report
pixel dimensions, SVG reports its width/height attributes or its viewBox.

Outbound requests go through a resty client on a retrying transport, a
token bucket limiter and one circuit breaker per host. Only transport
failures, 5xx and 429 responses count against a breaker.

	p := probe.New(probe.DefaultConfig(),
		probe.WithResizer(builder),
		probe.WithMetrics(metrics),
	)
	resolver := images.NewResolver(cfg, images.WithProber(p))

With a resizer and a hint width, the resized rendition is fetched instead
of the original and only its aspect ratio is reported, since its pixel
dimensions describe the rendition rather than the source.
*/
package probe
