package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
)

const (
	defaultCookieName = "storefront_session"
	defaultCookiePath = "/"
	defaultLifetime   = 7 * 24 * time.Hour
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Visitor identifies an anonymous storefront visitor. The ID keys the
// per-session cart store and checkout orchestrator.
type Visitor struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Config controls cookie encoding and lifetime for the session manager.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite
	Lifetime       time.Duration
	Now            func() time.Time
}

// Manager decodes and persists visitor identity via signed (and optionally encrypted) cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CookieSameSite == 0 {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var blockKey []byte
	if len(cfg.BlockKey) > 0 {
		blockKey = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, blockKey)
	codec.MaxAge(int(cfg.Lifetime / time.Second))

	return &Manager{cfg: cfg, codec: codec, now: now}, nil
}

// Read decodes the visitor from the request cookie. A missing or
// invalid cookie yields ok=false, never an error the caller must act on.
func (m *Manager) Read(r *http.Request) (Visitor, bool) {
	if m == nil || r == nil {
		return Visitor{}, false
	}
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return Visitor{}, false
	}
	var visitor Visitor
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &visitor); err != nil {
		return Visitor{}, false
	}
	if visitor.ID == "" {
		return Visitor{}, false
	}
	if m.cfg.Lifetime > 0 && m.now().After(visitor.IssuedAt.Add(m.cfg.Lifetime)) {
		return Visitor{}, false
	}
	return visitor, true
}

// Issue creates a fresh visitor identity and writes its cookie.
func (m *Manager) Issue(w http.ResponseWriter) (Visitor, error) {
	if m == nil {
		return Visitor{}, ErrInvalidConfig
	}
	visitor := Visitor{
		ID:       ulid.Make().String(),
		IssuedAt: m.now().UTC(),
	}
	encoded, err := m.codec.Encode(m.cfg.CookieName, visitor)
	if err != nil {
		return Visitor{}, fmt.Errorf("session: encode cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		MaxAge:   int(m.cfg.Lifetime / time.Second),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
	return visitor, nil
}

type contextKey string

const visitorContextKey contextKey = "github.com/Akashkilledar/trendy-footwear/internal/platform/session/visitor"

// WithVisitor stores the visitor identity on the context.
func WithVisitor(ctx context.Context, visitor Visitor) context.Context {
	return context.WithValue(ctx, visitorContextKey, visitor)
}

// VisitorFromContext retrieves the visitor identity when present.
func VisitorFromContext(ctx context.Context) (Visitor, bool) {
	if ctx == nil {
		return Visitor{}, false
	}
	visitor, ok := ctx.Value(visitorContextKey).(Visitor)
	if !ok || visitor.ID == "" {
		return Visitor{}, false
	}
	return visitor, true
}

// Middleware reads the visitor cookie, issuing a fresh identity on
// first touch, and exposes the visitor through the request context.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor, ok := m.Read(r)
			if !ok {
				issued, err := m.Issue(w)
				if err != nil {
					http.Error(w, "failed to establish session", http.StatusInternalServerError)
					return
				}
				visitor = issued
			}
			ctx := WithVisitor(r.Context(), visitor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
