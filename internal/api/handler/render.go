package handler

import (
	"net/http"

	"github.com/Rrens/alap/internal/api/response"
	"github.com/Rrens/alap/internal/markdown"
)

// RenderRequest is the body of POST /render
type RenderRequest struct {
	Markdown string `json:"markdown" validate:"max=200000"`
	Format   string `json:"format" validate:"omitempty,oneof=document html"`
}

// Render parses markdown into a document, or into HTML when asked
func Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeBody(w, r, maxRenderBody, &req) {
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	doc := markdown.Render(req.Markdown)
	if req.Format == "html" {
		response.OK(w, map[string]any{
			"html":    markdown.HTML(doc),
			"pending": doc.IsEmpty(),
		})
		return
	}
	response.OK(w, doc)
}

// HighlightCSS serves the stylesheet for highlighted code blocks
func HighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write([]byte(markdown.HighlightCSS()))
}
