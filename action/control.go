// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package action

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// Control is one page control that performs a single request when clicked.
// The exported fields describe the control as rendered; after Attach they
// are read-only and the current kind and label are tracked internally.
type Control struct {
	Kind     string // registry key, e.g. "thread_upvote_button"
	URL      string // literal target, for kinds built with LiteralURL
	Method   string // HTTP method, passed through verbatim
	Value    string // identifying value, usually a thread id
	Endpoint string // optional suffix for ThreadActionURL
	Label    string

	disabled atomic.Bool

	mu      sync.RWMutex
	kind    string
	label   string
	binding *Binding
}

// Disabled reports whether the control refuses clicks.
func (c *Control) Disabled() bool {
	return c.disabled.Load()
}

// CurrentKind is the kind the control is bound to now. It differs from
// Kind after a toggle transition.
func (c *Control) CurrentKind() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.binding == nil {
		return c.Kind
	}
	return c.kind
}

// CurrentLabel is the label after any toggle transition.
func (c *Control) CurrentLabel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.binding == nil {
		return c.Label
	}
	return c.label
}

func (c *Control) bound() (string, *Binding) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kind, c.binding
}

func (c *Control) bind(kind, label string, b *Binding) {
	c.mu.Lock()
	c.kind = kind
	c.label = label
	c.binding = b
	c.mu.Unlock()
}

// URLBuilder derives the request target from a control.
type URLBuilder func(ctl *Control) (string, error)

// MethodResolver derives the request method from a control.
type MethodResolver func(ctl *Control) (string, error)

var (
	errNoValue    = errors.New("control has no value")
	errNoURL      = errors.New("control has no url")
	errNoMethod   = errors.New("control has no method")
	errBadMethod  = errors.New("method is not a valid HTTP token")
	errNoEndpoint = errors.New("control has no endpoint")
)

// UpvoteURL builds /upvote/{value}.
func UpvoteURL() URLBuilder {
	return func(ctl *Control) (string, error) {
		if ctl.Value == "" {
			return "", errNoValue
		}
		return "/upvote/" + url.PathEscape(ctl.Value), nil
	}
}

// ThreadActionURL builds prefix/{value}/{endpoint}, or prefix/{value} when
// the control has no endpoint.
func ThreadActionURL(prefix string) URLBuilder {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(ctl *Control) (string, error) {
		if ctl.Value == "" {
			return "", errNoValue
		}
		u := prefix + "/" + url.PathEscape(ctl.Value)
		if ctl.Endpoint != "" {
			u += "/" + url.PathEscape(ctl.Endpoint)
		}
		return u, nil
	}
}

// EndpointRequired wraps a builder so controls without an endpoint are
// rejected.
func EndpointRequired(b URLBuilder) URLBuilder {
	return func(ctl *Control) (string, error) {
		if ctl.Endpoint == "" {
			return "", errNoEndpoint
		}
		return b(ctl)
	}
}

// LiteralURL uses the control's own URL.
func LiteralURL() URLBuilder {
	return func(ctl *Control) (string, error) {
		if ctl.URL == "" {
			return "", errNoURL
		}
		return ctl.URL, nil
	}
}

// MethodAttr uses the control's Method exactly as written.
func MethodAttr() MethodResolver {
	return func(ctl *Control) (string, error) {
		if ctl.Method == "" {
			return "", errNoMethod
		}
		if !validMethod(ctl.Method) {
			return "", fmt.Errorf("%w: %q", errBadMethod, ctl.Method)
		}
		return ctl.Method, nil
	}
}

// FixedMethod ignores the control and always returns m.
func FixedMethod(m string) MethodResolver {
	return func(*Control) (string, error) {
		if !validMethod(m) {
			return "", fmt.Errorf("%w: %q", errBadMethod, m)
		}
		return m, nil
	}
}

// validMethod checks m is an RFC 7230 token.
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for i := 0; i < len(m); i++ {
		c := m[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// ValidationError rejects a control at Attach time.
type ValidationError struct {
	Kind  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q control: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
