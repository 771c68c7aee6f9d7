// Package admin implements the back-office product management flows:
// listing with client-side filtering, add/edit upserts, and deletes
// guarded by an explicit confirmation step.
package admin

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Akashkilledar/trendy-footwear/internal/catalog"
	"github.com/Akashkilledar/trendy-footwear/internal/domain"
)

var (
	// ErrConfirmationRequired blocks a delete until the caller confirms it.
	ErrConfirmationRequired = errors.New("admin: delete requires confirmation")
)

// ValidationError carries per-field messages for a rejected product form.
type ValidationError struct {
	fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for key := range e.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "admin: invalid product fields: " + strings.Join(keys, ", ")
}

// Fields returns the field-keyed messages.
func (e *ValidationError) Fields() map[string]string {
	return e.fields
}

// catalogAPI is the slice of the catalog client the service needs.
type catalogAPI interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// ProductInput is the raw add/edit form payload. Price and MRP arrive
// as strings and are parsed here.
type ProductInput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	MRP         string `json:"mrp"`
	ImageURL    string `json:"imageUrl"`
	Brand       string `json:"brand"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Description string `json:"description"`
}

// DeleteRequest identifies a product to delete and whether the
// operator confirmed the action.
type DeleteRequest struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirm"`
}

// Deps wires the Service's collaborators.
type Deps struct {
	Catalog catalogAPI
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

// Service manages products against the external catalog. It keeps the
// last successfully fetched list so the admin view can keep rendering
// while the catalog is down.
type Service struct {
	catalog catalogAPI
	logger  func(ctx context.Context, event string, fields map[string]any)

	mu     sync.RWMutex
	cached []domain.Product
}

// NewService constructs a Service validating required dependencies.
func NewService(deps Deps) (*Service, error) {
	if deps.Catalog == nil {
		return nil, errors.New("admin: catalog client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Service{catalog: deps.Catalog, logger: logger}, nil
}

// Refresh fetches the product list from the catalog and replaces the
// cache. On failure the previous cache is kept and returned alongside
// the error so callers can degrade gracefully.
func (s *Service) Refresh(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		s.logger(ctx, "admin.catalog_refresh_failed", map[string]any{"error": err.Error()})
		s.mu.RLock()
		cached := append([]domain.Product(nil), s.cached...)
		s.mu.RUnlock()
		return cached, err
	}

	s.mu.Lock()
	s.cached = products
	s.mu.Unlock()
	return append([]domain.Product(nil), products...), nil
}

// Products returns the cached list without touching the catalog.
func (s *Service) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.cached...)
}

// Filter narrows the cached list by a search term. Title, brand, and
// category match case-insensitively; id and price match on their plain
// string forms. An empty term returns everything.
func (s *Service) Filter(term string) []domain.Product {
	products := s.Products()
	term = strings.TrimSpace(term)
	if term == "" {
		return products
	}

	lowered := strings.ToLower(term)
	matched := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Title), lowered) ||
			strings.Contains(strings.ToLower(product.Brand), lowered) ||
			strings.Contains(strings.ToLower(product.Category), lowered) ||
			strings.Contains(product.ID, term) ||
			strings.Contains(product.Price.String(), term) {
			matched = append(matched, product)
		}
	}
	return matched
}

// Product fetches one product straight from the catalog.
func (s *Service) Product(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, catalog.ErrNotFound
	}
	return s.catalog.Get(ctx, id)
}

// Save upserts a product: an input without an id creates, one with an
// id updates. The cache is refreshed from the write response.
func (s *Service) Save(ctx context.Context, input ProductInput) (domain.Product, error) {
	product, err := parseInput(input)
	if err != nil {
		return domain.Product{}, err
	}

	var saved domain.Product
	if product.ID == "" {
		saved, err = s.catalog.Create(ctx, product)
	} else {
		saved, err = s.catalog.Update(ctx, product)
	}
	if err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.cached {
		if s.cached[i].ID == saved.ID {
			s.cached[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		s.cached = append(s.cached, saved)
	}
	s.mu.Unlock()

	s.logger(ctx, "admin.product_saved", map[string]any{
		"product_id": saved.ID,
		"created":    product.ID == "",
	})
	return saved, nil
}

// Delete removes a product after the operator has confirmed. An
// unconfirmed request never reaches the catalog.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return catalog.ErrNotFound
	}
	if !req.Confirmed {
		return ErrConfirmationRequired
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.cached {
		if s.cached[i].ID == id {
			s.cached = append(s.cached[:i], s.cached[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger(ctx, "admin.product_deleted", map[string]any{"product_id": id})
	return nil
}

func parseInput(input ProductInput) (domain.Product, error) {
	fields := make(map[string]string)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "Title is required"
	}
	categoryValue := strings.TrimSpace(input.Category)
	if categoryValue == "" {
		fields["category"] = "Category is required"
	}
	brand := strings.TrimSpace(input.Brand)
	if brand == "" {
		fields["brand"] = "Brand is required"
	}

	price, err := parseAmount(input.Price)
	if err != nil {
		fields["price"] = "Price must be a positive number"
	}
	mrp, err := parseAmount(input.MRP)
	if err != nil {
		fields["mrp"] = "MRP must be a positive number"
	}

	if len(fields) > 0 {
		return domain.Product{}, &ValidationError{fields: fields}
	}

	return domain.Product{
		ID:          strings.TrimSpace(input.ID),
		Title:       title,
		Category:    categoryValue,
		Price:       price,
		MRP:         mrp,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Brand:       brand,
		Color:       strings.TrimSpace(input.Color),
		Size:        strings.TrimSpace(input.Size),
		Description: strings.TrimSpace(input.Description),
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.IsNegative() || value.IsZero() {
		return decimal.Decimal{}, errors.New("admin: amount must be positive")
	}
	return value, nil
}
