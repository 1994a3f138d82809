// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package topicsview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/quickly-discuss/models"
)

var (
	// ErrAlreadyMounted is returned by a second Mount on the same view.
	ErrAlreadyMounted = errors.New("topics view already mounted")
	// ErrMalformedResponse means the body was not a JSON array of
	// topics with unique, non-empty ids.
	ErrMalformedResponse = errors.New("malformed topics response")
)

// maxBody caps how much of a topics response is read.
const maxBody = 4 << 20

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError describes a failed topics fetch.
type FetchError struct {
	URL    string
	Status int // 0 when no response arrived
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Node is one rendered topic entry, keyed by the topic id.
type Node struct {
	Key  string
	Name string
}

// Option configures a View.
type Option func(*View)

// WithClient sets the transport used for the fetch.
func WithClient(d Doer) Option {
	return func(v *View) { v.client = d }
}

// WithClock replaces time.Now for the cache-busting parameter.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

// OnRender registers a hook called with the new nodes after every re-render.
func OnRender(fn func([]Node)) Option {
	return func(v *View) { v.onRender = fn }
}

// View holds the topic list fetched from one URL.
type View struct {
	url      string
	client   Doer
	now      func() time.Time
	onRender func([]Node)

	mounted atomic.Bool

	mu    sync.RWMutex
	items []models.TopicItem
	nodes []Node
}

// New returns an unmounted view holding no topics.
func New(url string, opts ...Option) *View {
	v := &View{
		url:    url,
		client: http.DefaultClient,
		now:    time.Now,
		items:  []models.TopicItem{},
		nodes:  []Node{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount fetches the topic list once. On success the held list is replaced
// and the view re-rendered; on failure the previous list is kept, the
// failure is logged and returned. There is no retry.
func (v *View) Mount(ctx context.Context) error {
	if !v.mounted.CompareAndSwap(false, true) {
		return ErrAlreadyMounted
	}

	items, status, err := v.fetch(ctx)
	if err != nil {
		slog.Error("failed to load topics", "url", v.url, "status", status, "error", err)
		return &FetchError{URL: v.url, Status: status, Err: err}
	}

	nodes := make([]Node, len(items))
	for i, it := range items {
		nodes[i] = Node{Key: it.ID, Name: it.Name}
	}

	v.mu.Lock()
	v.items = items
	v.nodes = nodes
	v.mu.Unlock()

	slog.Debug("topics loaded", "url", v.url, "count", len(items))
	if v.onRender != nil {
		v.onRender(v.Nodes())
	}
	return nil
}

func (v *View) fetch(ctx context.Context) ([]models.TopicItem, int, error) {
	u, err := url.Parse(v.url)
	if err != nil {
		return nil, 0, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(v.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode))
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return items, resp.StatusCode, nil
}

// decodeItems accepts only a JSON array of topics with unique ids.
func decodeItems(body []byte) ([]models.TopicItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", ErrMalformedResponse)
	}

	var items []models.TopicItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", ErrMalformedResponse, i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedResponse, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	if items == nil {
		items = []models.TopicItem{}
	}
	return items, nil
}

// Items returns a copy of the held topics in response order.
func (v *View) Items() []models.TopicItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.TopicItem(nil), v.items...)
}

// Nodes returns a copy of the rendered nodes.
func (v *View) Nodes() []Node {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Node(nil), v.nodes...)
}

var listTmpl = template.Must(template.New("topics").Parse(
	`<div class="topicsContainer">
<h1>Topics</h1>
<div class="topicsList">
{{- range .}}
<div class="topic" data-key="{{.Key}}">{{.Name}}</div>
{{- end}}
</div>
</div>
`))

// Render writes the current list as an HTML fragment.
func (v *View) Render(w io.Writer) error {
	return listTmpl.Execute(w, v.Nodes())
}
