package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashkilledar/trendy-footwear/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestListDecodesProducts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/items", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","title":"Air Max","category":"sneakers","price":4999,"mrp":5999,"brand":"Nike"}]`))
	}))

	products, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Air Max", products[0].Title)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(4999)))
}

func TestGetMapsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSendsIdempotencyKey(t *testing.T) {
	var seenKeys []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		seenKeys = append(seenKeys, r.Header.Get("Idempotency-Key"))

		var product domain.Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&product))
		product.ID = "42"
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(product))
	}))

	created, err := client.Create(context.Background(), domain.Product{Title: "Pegasus", Brand: "Nike"})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)

	_, err = client.Create(context.Background(), domain.Product{Title: "Pegasus", Brand: "Nike"})
	require.NoError(t, err)

	require.Len(t, seenKeys, 2)
	assert.NotEmpty(t, seenKeys[0])
	assert.NotEqual(t, seenKeys[0], seenKeys[1])
}

func TestUpdateRequiresID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Update(context.Background(), domain.Product{Title: "no id"})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestDeleteHitsProductPath(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.Delete(context.Background(), "7"))
	assert.Equal(t, "/items/7", path)
}

func TestServerErrorsMapToUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 5; i++ {
		_, err := client.List(context.Background())
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	// Once open, calls fail fast without reaching the catalog.
	before := requests
	_, err := client.List(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, requests)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))

	for i := 0; i < 6; i++ {
		_, err := client.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 6, requests)
}
