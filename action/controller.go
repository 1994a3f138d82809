// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
)

var (
	// ErrDisabled is returned when a click lands on a disabled control.
	ErrDisabled = errors.New("control is disabled")
	// ErrUnloaded is returned once the page has been reloaded.
	ErrUnloaded = errors.New("page reloaded")
	// ErrNotAttached is returned when clicking a control that was never attached.
	ErrNotAttached = errors.New("control is not attached")
	// ErrUnknownKind is wrapped by Attach for kinds without a binding.
	ErrUnknownKind = errors.New("unknown control kind")
	// ErrDuplicateKind is returned by Handle for an already registered kind.
	ErrDuplicateKind = errors.New("kind already registered")
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reloader discards all client state and re-derives it from the server.
type Reloader interface {
	Reload()
}

// ReloadFunc adapts a function to Reloader.
type ReloadFunc func()

func (f ReloadFunc) Reload() { f() }

// Notifier is told about failed actions under the Reenable policy.
type Notifier interface {
	Notify(ctl *Control, err error)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctl *Control, err error)

func (f NotifyFunc) Notify(ctl *Control, err error) { f(ctl, err) }

// SuccessEffect is what a 2xx response does.
type SuccessEffect int

const (
	// Reload reloads the whole page; the controller is done afterwards.
	Reload SuccessEffect = iota
	// Transition rebinds the control to its twin kind and re-enables it.
	Transition
)

func (e SuccessEffect) String() string {
	switch e {
	case Reload:
		return "reload"
	case Transition:
		return "toggle"
	default:
		return fmt.Sprintf("SuccessEffect(%d)", int(e))
	}
}

// FailurePolicy is what a failed request leaves behind.
type FailurePolicy int

const (
	// KeepDisabled leaves the control inert until the page is reloaded.
	KeepDisabled FailurePolicy = iota
	// Reenable makes the control clickable again and calls the Notifier.
	Reenable
)

// Binding parameterizes the act-and-reload protocol for one control kind.
type Binding struct {
	URL       URLBuilder
	Method    MethodResolver
	OnSuccess SuccessEffect
	// TransitionTo is the twin kind used when OnSuccess is Transition.
	TransitionTo string
	// Label replaces the control label after a transition into this kind.
	Label string
}

// StatusError is a failed action. Status is 0 when no response arrived.
type StatusError struct {
	URL    string
	Method string
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Result is the outcome of a successful click.
type Result struct {
	URL          string
	Method       string
	Status       int
	Reloaded     bool
	Transitioned bool
}

// Pending is an action whose request is in flight.
type Pending struct {
	done   chan struct{}
	result *Result
	err    error
}

// Wait blocks until the request has completed and its effect is applied.
func (p *Pending) Wait() (*Result, error) {
	<-p.done
	return p.result, p.err
}

// Done is closed when the request has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Option configures a Controller.
type Option func(*Controller)

// WithBaseURL resolves relative control URLs against base.
func WithBaseURL(base *url.URL) Option {
	return func(c *Controller) { c.base = base }
}

// WithFailurePolicy sets what happens to a control after a failed request.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithNotifier sets the Notifier used by the Reenable policy.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// OnTransition registers a hook called after a control switches kind.
func OnTransition(fn func(ctl *Control, from, to string)) Option {
	return func(c *Controller) { c.onTransition = fn }
}

// Controller dispatches control clicks through a kind registry.
type Controller struct {
	doer         Doer
	reloader     Reloader
	base         *url.URL
	policy       FailurePolicy
	notifier     Notifier
	onTransition func(ctl *Control, from, to string)

	mu       sync.RWMutex
	bindings map[string]*Binding

	unloaded atomic.Bool
}

// NewController returns a controller with no kinds registered.
func NewController(doer Doer, reloader Reloader, opts ...Option) *Controller {
	c := &Controller{
		doer:     doer,
		reloader: reloader,
		bindings: make(map[string]*Binding),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle registers the binding for kind.
func (c *Controller) Handle(kind string, b Binding) error {
	if kind == "" {
		return errors.New("kind is required")
	}
	if b.URL == nil || b.Method == nil {
		return fmt.Errorf("kind %q: url builder and method resolver are required", kind)
	}
	if b.OnSuccess == Transition && b.TransitionTo == "" {
		return fmt.Errorf("kind %q: transition needs a target kind", kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bindings[kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	c.bindings[kind] = &b
	return nil
}

// HandleAll registers every binding in reg.
func (c *Controller) HandleAll(reg Registry) error {
	for kind, b := range reg {
		if err := c.Handle(kind, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) lookup(kind string) *Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings[kind]
}

// Attach resolves the control's binding once and validates the control
// against it. A malformed control is rejected here rather than producing
// a bad request on click.
func (c *Controller) Attach(ctl *Control) error {
	b := c.lookup(ctl.Kind)
	if b == nil {
		return &ValidationError{Kind: ctl.Kind, Field: "kind", Err: ErrUnknownKind}
	}
	if b.OnSuccess == Transition && c.lookup(b.TransitionTo) == nil {
		return &ValidationError{Kind: ctl.Kind, Field: "kind",
			Err: fmt.Errorf("%w: transition target %s", ErrUnknownKind, b.TransitionTo)}
	}
	if _, _, err := c.resolve(ctl.Kind, b, ctl); err != nil {
		return err
	}

	ctl.bind(ctl.Kind, ctl.Label, b)
	return nil
}

// resolve builds the absolute URL and method for ctl under b.
func (c *Controller) resolve(kind string, b *Binding, ctl *Control) (string, string, error) {
	raw, err := b.URL(ctl)
	if err != nil {
		return "", "", &ValidationError{Kind: kind, Field: "url", Err: err}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", &ValidationError{Kind: kind, Field: "url", Err: err}
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}

	method, err := b.Method(ctl)
	if err != nil {
		return "", "", &ValidationError{Kind: kind, Field: "method", Err: err}
	}
	return u.String(), method, nil
}

// Click runs the act-and-reload protocol for ctl. The control is disabled
// before the request is dispatched, so a second click made before Click
// returns gets ErrDisabled and issues nothing. The request runs on its own
// goroutine; Pending.Wait reports how it ended.
func (c *Controller) Click(ctx context.Context, ctl *Control) (*Pending, error) {
	if c.unloaded.Load() {
		return nil, ErrUnloaded
	}
	kind, b := ctl.bound()
	if b == nil {
		return nil, ErrNotAttached
	}
	if !ctl.disabled.CompareAndSwap(false, true) {
		return nil, ErrDisabled
	}

	target, method, err := c.resolve(kind, b, ctl)
	if err != nil {
		ctl.disabled.Store(false)
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		ctl.disabled.Store(false)
		return nil, fmt.Errorf("build request: %w", err)
	}

	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result, p.err = c.dispatch(req, ctl, kind, b)
	}()
	return p, nil
}

func (c *Controller) dispatch(req *http.Request, ctl *Control, kind string, b *Binding) (*Result, error) {
	target, method := req.URL.String(), req.Method

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, c.fail(ctl, &StatusError{URL: target, Method: method, Err: err})
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(ctl, &StatusError{
			URL:    target,
			Method: method,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		})
	}

	res := &Result{URL: target, Method: method, Status: resp.StatusCode}
	switch b.OnSuccess {
	case Transition:
		c.transition(ctl, kind, b)
		res.Transitioned = true
	default:
		// Only the first success reloads; the page is gone afterwards
		if c.unloaded.CompareAndSwap(false, true) {
			slog.Debug("action succeeded, reloading", "url", target, "method", method, "kind", kind)
			c.reloader.Reload()
			res.Reloaded = true
		}
	}
	return res, nil
}

func (c *Controller) transition(ctl *Control, from string, b *Binding) {
	twin := c.lookup(b.TransitionTo)
	label := twin.Label
	if label == "" {
		label = ctl.CurrentLabel()
	}
	ctl.bind(b.TransitionTo, label, twin)
	ctl.disabled.Store(false)

	slog.Debug("control transitioned", "from", from, "to", b.TransitionTo, "value", ctl.Value)
	if c.onTransition != nil {
		c.onTransition(ctl, from, b.TransitionTo)
	}
}

func (c *Controller) fail(ctl *Control, err *StatusError) error {
	slog.Warn("action failed", "url", err.URL, "method", err.Method, "status", err.Status, "error", err.Err)
	if c.policy == Reenable {
		ctl.disabled.Store(false)
		if c.notifier != nil {
			c.notifier.Notify(ctl, err)
		}
	}
	return err
}

// Unloaded reports whether a successful action has reloaded the page.
func (c *Controller) Unloaded() bool {
	return c.unloaded.Load()
}
