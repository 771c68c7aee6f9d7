// Package catalog is the HTTP client for the external product catalog
// API. The catalog owns product persistence; this package only speaks
// its REST surface and shields callers from its availability with a
// circuit breaker.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
)

var (
	// ErrUnavailable indicates the catalog could not be reached, timed
	// out, or the circuit breaker is open.
	ErrUnavailable = errors.New("catalog: service unavailable")
	// ErrNotFound indicates the catalog has no product with that id.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrRejected indicates the catalog refused the request payload.
	ErrRejected = errors.New("catalog: request rejected")
)

// Config configures the catalog Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the underlying resty client, used by tests.
	HTTPClient *resty.Client
}

// Client calls the catalog REST API. All writes carry an idempotency
// key so a retried request cannot duplicate a product.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient constructs a Client using the given configuration.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resty.New()
	}
	httpClient.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	return &Client{http: httpClient, breaker: breaker}, nil
}

// List fetches every product in the catalog.
func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := c.execute(func() error {
		resp, err := c.http.R().SetContext(ctx).Get("/items")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &products); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Get fetches a single product by id.
func (c *Client) Get(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	var product domain.Product
	err := c.execute(func() error {
		resp, err := c.http.R().SetContext(ctx).Get("/items/" + id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &product); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Create adds a new product and returns the stored record, including
// the id the catalog assigned.
func (c *Client) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	var created domain.Product
	err := c.execute(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Idempotency-Key", uuid.NewString()).
			SetBody(product).
			Post("/items")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &created); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return created, nil
}

// Update replaces the product with the given id.
func (c *Client) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: empty id", ErrRejected)
	}

	var updated domain.Product
	err := c.execute(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader("Idempotency-Key", uuid.NewString()).
			SetBody(product).
			Put("/items/" + id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &updated); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

// Delete removes the product with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrNotFound)
	}

	return c.execute(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Idempotency-Key", uuid.NewString()).
			Delete("/items/" + id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return checkStatus(resp)
	})
}

// execute routes a call through the circuit breaker. Not-found and
// rejected responses count as successes so a burst of bad ids cannot
// trip the breaker.
func (c *Client) execute(fn func() error) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRejected) {
				return err, nil
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}
		return err
	}
	if callerErr, ok := result.(error); ok {
		return callerErr
	}
	return nil
}

func checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	case resp.StatusCode() >= http.StatusBadRequest:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}
	return nil
}
