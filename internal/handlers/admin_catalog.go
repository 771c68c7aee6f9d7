package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Akashkilledar/trendy-footwear/internal/admin"
	"github.com/Akashkilledar/trendy-footwear/internal/catalog"
	"github.com/Akashkilledar/trendy-footwear/internal/domain"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/httpx"
)

const maxAdminBodySize = 64 * 1024

// AdminProductService is the slice of the admin service the handlers consume.
type AdminProductService interface {
	Refresh(ctx context.Context) ([]domain.Product, error)
	Filter(term string) []domain.Product
	Product(ctx context.Context, id string) (domain.Product, error)
	Save(ctx context.Context, input admin.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, req admin.DeleteRequest) error
}

// AdminHandlers exposes the back-office product management endpoints.
type AdminHandlers struct {
	products AdminProductService
}

// NewAdminHandlers constructs admin handlers over the product service.
func NewAdminHandlers(products AdminProductService) *AdminHandlers {
	return &AdminHandlers{products: products}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{productID}", h.getProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
}

type productListResponse struct {
	Products []domain.Product `json:"products"`
	Stale    bool             `json:"stale,omitempty"`
}

// listProducts refreshes from the catalog and applies the optional `q`
// filter. When the catalog is down but a previous list exists, the
// stale list is served with a marker instead of an error.
func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cached, err := h.products.Refresh(ctx)
	if err != nil && len(cached) == 0 {
		h.writeProductError(w, r, err)
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Products: h.products.Filter(term),
		Stale:    err != nil,
	})
}

func (h *AdminHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.products.Product(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var input admin.ProductInput
	if err := decodeJSONBody(r, maxAdminBodySize, &input); err != nil {
		writeBodyError(w, r, err)
		return
	}
	// The URL id wins over anything in the body.
	if id != "" {
		input.ID = id
	}

	saved, err := h.products.Save(ctx, input)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, saved)
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("admin_unavailable", "admin service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req admin.DeleteRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "productID")

	if err := h.products.Delete(ctx, req); err != nil {
		h.writeProductError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *admin.ValidationError
	switch {
	case errors.As(err, &validationErr):
		details := make(map[string]any, 1)
		details["fields"] = validationErr.Fields()
		httpx.WriteError(ctx, w, httpx.
			NewError("validation_failed", "product has invalid fields", http.StatusUnprocessableEntity).
			WithDetails(details))
	case errors.Is(err, admin.ErrConfirmationRequired):
		httpx.WriteError(ctx, w, httpx.NewError("confirmation_required", "confirm the delete to proceed", http.StatusConflict))
	case errors.Is(err, catalog.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, catalog.ErrRejected):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, catalog.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "the product catalog is unreachable", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("admin_error", err.Error(), http.StatusInternalServerError))
	}
}
