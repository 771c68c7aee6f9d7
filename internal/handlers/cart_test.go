package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Akashkilledar/trendy-footwear/internal/cart"
	"github.com/Akashkilledar/trendy-footwear/internal/platform/session"
)

// testSessionMiddleware injects a fixed visitor identity, standing in
// for the cookie-backed session middleware.
func testSessionMiddleware(visitorID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.WithVisitor(r.Context(), session.Visitor{ID: visitorID, IssuedAt: time.Now()})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newCartRouter(visitorID string, carts *cart.Registry) chi.Router {
	r := chi.NewRouter()
	r.Use(testSessionMiddleware(visitorID))
	NewCartHandlers(carts).Routes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestCartAddAndGet(t *testing.T) {
	router := newCartRouter("visitor-1", cart.NewRegistry())

	rr := doJSON(t, router, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"mrp":1299,"quantity":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/", "")
	body := decodeBody(t, rr)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one cart item, got %v", body["items"])
	}
	item := items[0].(map[string]any)
	if item["quantity"] != float64(2) {
		t.Fatalf("expected quantity 2, got %v", item["quantity"])
	}
	if body["subtotal"] != "1998" {
		t.Fatalf("expected subtotal 1998, got %v", body["subtotal"])
	}
}

func TestCartAddMergesQuantity(t *testing.T) {
	router := newCartRouter("visitor-1", cart.NewRegistry())

	doJSON(t, router, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"quantity":1}`)
	rr := doJSON(t, router, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"quantity":2}`)

	body := decodeBody(t, rr)
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected merged line, got %d items", len(items))
	}
	if items[0].(map[string]any)["quantity"] != float64(3) {
		t.Fatalf("expected merged quantity 3, got %v", items[0].(map[string]any)["quantity"])
	}
}

func TestCartAddRejectsMissingID(t *testing.T) {
	router := newCartRouter("visitor-1", cart.NewRegistry())

	rr := doJSON(t, router, http.MethodPost, "/items", `{"title":"no id","price":10,"quantity":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if decodeBody(t, rr)["error"] != "invalid_request" {
		t.Fatalf("unexpected error code: %s", rr.Body.String())
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	router := newCartRouter("visitor-1", cart.NewRegistry())
	doJSON(t, router, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"quantity":1}`)

	rr := doJSON(t, router, http.MethodPut, "/items/1", `{"quantity":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["subtotal"] != "4995" {
		t.Fatalf("expected subtotal 4995, got %v", body["subtotal"])
	}

	rr = doJSON(t, router, http.MethodPut, "/items/missing", `{"quantity":1}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown item, got %d", rr.Code)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	router := newCartRouter("visitor-1", cart.NewRegistry())
	doJSON(t, router, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"quantity":1}`)
	doJSON(t, router, http.MethodPost, "/items", `{"id":"2","title":"Pegasus","price":500,"quantity":1}`)

	rr := doJSON(t, router, http.MethodDelete, "/items/1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(decodeBody(t, rr)["items"].([]any)) != 1 {
		t.Fatalf("expected one item after remove")
	}

	rr = doJSON(t, router, http.MethodDelete, "/", "")
	if len(decodeBody(t, rr)["items"].([]any)) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestCartsAreSessionScoped(t *testing.T) {
	registry := cart.NewRegistry()

	first := newCartRouter("visitor-1", registry)
	second := newCartRouter("visitor-2", registry)

	doJSON(t, first, http.MethodPost, "/items", `{"id":"1","title":"Air Max","price":999,"quantity":1}`)

	rr := doJSON(t, second, http.MethodGet, "/", "")
	if len(decodeBody(t, rr)["items"].([]any)) != 0 {
		t.Fatalf("expected visitor-2 cart to be empty")
	}
}
