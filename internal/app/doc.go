// Package app assembles the rendering stack from configuration: logger,
// metrics registry, tracer, size probe and cache, image resolver and
// document renderer.
//
//	a, err := app.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//	res, err := a.Renderer.Render(ctx, doc, document.RenderOptions{})
package app
