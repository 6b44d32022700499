package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KexinAnswer/gitbook/internal/images"
)

// ResolveRequest is the body of POST /v1/images/resolve.
type ResolveRequest struct {
	Source      images.Source       `json:"source"`
	Breakpoints []images.Breakpoint `json:"breakpoints"`
	Quality     int                 `json:"quality,omitempty"`
	// Resize defaults to true; the resize flag still applies.
	Resize *bool `json:"resize,omitempty"`
}

// PictureRequest is the body of POST /v1/images/picture.
type PictureRequest struct {
	Sources     images.Sources      `json:"sources"`
	Breakpoints []images.Breakpoint `json:"breakpoints"`
	Quality     int                 `json:"quality,omitempty"`
	Resize      *bool               `json:"resize,omitempty"`
	Priority    images.Priority     `json:"priority,omitempty"`
	Preload     bool                `json:"preload,omitempty"`
}

func resizeRequested(resize *bool) bool {
	return resize == nil || *resize
}

// ResolveImage computes the responsive attributes of one image.
func (h *Handlers) ResolveImage(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	opts := []images.CallOption{images.WithResize(resizeRequested(req.Resize))}
	if req.Quality != 0 {
		opts = append(opts, images.WithQuality(req.Quality))
	}

	res, err := h.resolver.Resolve(c.Request.Context(), req.Source, req.Breakpoints, opts...)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Picture resolves the light and dark variants of a themed image.
func (h *Handlers) Picture(c *gin.Context) {
	var req PictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pic, err := h.resolver.Picture(c.Request.Context(), req.Sources, images.PictureOptions{
		Breakpoints: req.Breakpoints,
		Quality:     req.Quality,
		NoResize:    !resizeRequested(req.Resize),
		Priority:    req.Priority,
		Preload:     req.Preload,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pic)
}
