package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func TestManagerRequiresHashKey(t *testing.T) {
	_, err := NewManager(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIssueAndReadRoundTrip(t *testing.T) {
	manager, err := NewManager(Config{HashKey: testHashKey})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	issued, err := manager.Issue(rr)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	visitor, ok := manager.Read(req)
	require.True(t, ok)
	assert.Equal(t, issued.ID, visitor.ID)
}

func TestReadRejectsExpiredSession(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manager, err := NewManager(Config{
		HashKey:  testHashKey,
		Lifetime: time.Hour,
		Now:      func() time.Time { return current },
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	_, err = manager.Issue(rr)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])

	_, ok := manager.Read(req)
	assert.False(t, ok)
}

func TestMiddlewareIssuesSessionOnFirstTouch(t *testing.T) {
	manager, err := NewManager(Config{HashKey: testHashKey})
	require.NoError(t, err)

	var seen Visitor
	handler := manager.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor, ok := VisitorFromContext(r.Context())
		require.True(t, ok)
		seen = visitor
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen.ID)
	require.Len(t, rr.Result().Cookies(), 1)

	// Second request with the issued cookie keeps the same identity.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	rr2 := httptest.NewRecorder()

	var second Visitor
	handler2 := manager.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second, _ = VisitorFromContext(r.Context())
	}))
	handler2.ServeHTTP(rr2, req)

	assert.Equal(t, seen.ID, second.ID)
	assert.Empty(t, rr2.Result().Cookies())
}
