package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Akashkilledar/trendy-footwear/internal/cart"
	"github.com/Akashkilledar/trendy-footwear/internal/domain"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/httpx"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the per-visitor cart endpoints.
type CartHandlers struct {
	carts *cart.Registry
}

// NewCartHandlers constructs cart handlers over the session-keyed registry.
func NewCartHandlers(carts *cart.Registry) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{itemID}", h.updateItem)
	r.Delete("/items/{itemID}", h.removeItem)
}

type cartItemPayload struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	MRP       decimal.Decimal `json:"mrp"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartResponse struct {
	Items    []cartItemPayload `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

func buildCartResponse(snapshot cart.Snapshot) cartResponse {
	items := make([]cartItemPayload, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, cartItemPayload{
			ID:        item.ID,
			Title:     item.Title,
			Price:     item.Price,
			MRP:       item.MRP,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return cartResponse{Items: items, Subtotal: snapshot.Subtotal}
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(h.carts.For(sessionID).View()))
}

type addItemRequest struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	MRP      decimal.Decimal `json:"mrp"`
	Quantity int             `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	store := h.carts.For(sessionID)
	err := store.Add(domain.CartItem{
		ID:       strings.TrimSpace(req.ID),
		Title:    strings.TrimSpace(req.Title),
		Price:    req.Price,
		MRP:      req.MRP,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(store.View()))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	store := h.carts.For(sessionID)
	if err := store.UpdateQuantity(chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(store.View()))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	store := h.carts.For(sessionID)
	if err := store.Remove(chi.URLParam(r, "itemID")); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(store.View()))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := visitorID(w, r)
	if !ok {
		return
	}

	store := h.carts.For(sessionID)
	store.Clear()
	writeJSONResponse(w, http.StatusOK, buildCartResponse(store.View()))
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrInvalidQuantity):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", err.Error(), http.StatusInternalServerError))
	}
}
