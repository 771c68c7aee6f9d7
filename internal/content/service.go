// Package content serves static store pages (terms and conditions,
// shipping policy) authored as markdown files with a YAML front matter
// block. Rendered pages are cached for a short TTL so repeated reads do
// not hit the filesystem.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates no page exists for the requested slug.
var ErrNotFound = errors.New("content: page not found")

const frontMatterDelimiter = "---"

var pagePolicy = newPagePolicy()

func newPagePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Page is a rendered store page.
type Page struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	BodyHTML  string    `json:"body_html"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type frontMatter struct {
	Title     string    `yaml:"title"`
	Summary   string    `yaml:"summary"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Config configures the content Service.
type Config struct {
	// FS is the directory holding <slug>.md files.
	FS fs.FS
	// CacheTTL bounds how long a rendered page is reused. Zero disables
	// expiry.
	CacheTTL time.Duration
	Clock    func() time.Time
}

// Service renders markdown pages to sanitized HTML.
type Service struct {
	fsys     fs.FS
	cacheTTL time.Duration
	now      func() time.Time
	markdown goldmark.Markdown

	mu    sync.Mutex
	cache map[string]cachedPage
}

type cachedPage struct {
	page       Page
	renderedAt time.Time
}

// NewService constructs a Service using the given configuration.
func NewService(cfg Config) (*Service, error) {
	if cfg.FS == nil {
		return nil, errors.New("content: filesystem is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		fsys:     cfg.FS,
		cacheTTL: cfg.CacheTTL,
		now:      clock,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		cache:    make(map[string]cachedPage),
	}, nil
}

// Page renders the page for the given slug, serving from cache while
// the TTL holds.
func (s *Service) Page(slug string) (Page, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" || slug != path.Base(slug) || strings.HasPrefix(slug, ".") {
		return Page{}, ErrNotFound
	}

	s.mu.Lock()
	cached, ok := s.cache[slug]
	s.mu.Unlock()
	if ok && (s.cacheTTL <= 0 || s.now().Sub(cached.renderedAt) < s.cacheTTL) {
		return cached.page, nil
	}

	page, err := s.render(slug)
	if err != nil {
		return Page{}, err
	}

	s.mu.Lock()
	s.cache[slug] = cachedPage{page: page, renderedAt: s.now()}
	s.mu.Unlock()
	return page, nil
}

func (s *Service) render(slug string) (Page, error) {
	raw, err := fs.ReadFile(s.fsys, slug+".md")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("content: read %s: %w", slug, err)
	}

	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return Page{}, fmt.Errorf("content: parse %s: %w", slug, err)
	}

	var rendered bytes.Buffer
	if err := s.markdown.Convert(body, &rendered); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", slug, err)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = slug
	}

	return Page{
		Slug:      slug,
		Title:     title,
		Summary:   strings.TrimSpace(meta.Summary),
		BodyHTML:  strings.TrimSpace(pagePolicy.Sanitize(rendered.String())),
		UpdatedAt: meta.UpdatedAt,
	}, nil
}

// splitFrontMatter separates an optional leading YAML block delimited
// by "---" lines from the markdown body.
func splitFrontMatter(raw []byte) (frontMatter, []byte, error) {
	var meta frontMatter

	text := string(raw)
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") && !strings.HasPrefix(text, frontMatterDelimiter+"\r\n") {
		return meta, raw, nil
	}

	rest := text[len(frontMatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	if end < 0 {
		return meta, nil, errors.New("unterminated front matter")
	}

	block := rest[:end]
	body := rest[end+1+len(frontMatterDelimiter):]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, nil, err
	}
	return meta, []byte(body), nil
}
