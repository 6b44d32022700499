package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KexinAnswer/gitbook/internal/document"
)

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Document document.Document        `json:"document"`
	Files    map[string]document.File `json:"files,omitempty"`
	Pages    map[string]document.Page `json:"pages,omitempty"`
	Cover    *document.CoverProps     `json:"cover,omitempty"`
}

// Render renders a document to HTML. References resolve against the
// files and pages sent with the document.
func (h *Handlers) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.renderer.Render(c.Request.Context(), &req.Document, document.RenderOptions{
		Cover: req.Cover,
		Refs:  document.StaticResolver{Files: req.Files, Pages: req.Pages},
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
