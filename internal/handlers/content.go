package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Akashkilledar/trendy-footwear/internal/content"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/httpx"
)

// ContentPageService renders store pages by slug.
type ContentPageService interface {
	Page(slug string) (content.Page, error)
}

// ContentHandlers serves rendered store pages (terms and conditions).
type ContentHandlers struct {
	pages ContentPageService
}

// NewContentHandlers constructs content handlers over the page service.
func NewContentHandlers(pages ContentPageService) *ContentHandlers {
	return &ContentHandlers{pages: pages}
}

// Routes wires the /content endpoints onto the provided router.
func (h *ContentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{slug}", h.getPage)
}

func (h *ContentHandlers) getPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pages == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service is unavailable", http.StatusServiceUnavailable))
		return
	}

	page, err := h.pages.Page(chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("page_not_found", "page not found", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("content_error", err.Error(), http.StatusInternalServerError))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSONResponse(w, http.StatusOK, page)
}
