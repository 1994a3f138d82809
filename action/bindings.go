// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package action

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Control kinds used by the forum pages.
const (
	KindUpvote       = "thread_upvote_button"
	KindRemoveVote   = "thread_remove_vote_button"
	KindPostAction   = "post-action"
	KindThreadAction = "thread-action"
)

// Registry maps a control kind to its binding.
type Registry map[string]Binding

// DefaultRegistry returns the bindings the forum pages render controls for.
// Every action reloads the page on success; the server decides which vote
// button the next page shows. In-place toggling is opt-in through
// LoadBindings.
func DefaultRegistry() Registry {
	return Registry{
		KindUpvote: {
			URL:    UpvoteURL(),
			Method: FixedMethod("POST"),
			Label:  "upvote",
		},
		KindRemoveVote: {
			URL:    UpvoteURL(),
			Method: FixedMethod("DELETE"),
			Label:  "remove vote",
		},
		KindPostAction: {
			URL:    LiteralURL(),
			Method: MethodAttr(),
		},
		KindThreadAction: {
			URL:    EndpointRequired(ThreadActionURL("/t")),
			Method: MethodAttr(),
		},
	}
}

// DefaultController returns a controller with DefaultRegistry installed.
func DefaultController(doer Doer, reloader Reloader, opts ...Option) *Controller {
	c := NewController(doer, reloader, opts...)
	if err := c.HandleAll(DefaultRegistry()); err != nil {
		panic(err)
	}
	return c
}

// BindingConfig is one entry of a bindings file.
type BindingConfig struct {
	// Kind is the control kind this entry binds.
	Kind string `yaml:"kind"`

	// URL selects the builder: upvote, thread or literal.
	URL string `yaml:"url"`

	// Prefix is the path prefix for thread URLs (default "/t").
	Prefix string `yaml:"prefix,omitempty"`

	// Method fixes the request method; empty means use the control's own.
	Method string `yaml:"method,omitempty"`

	// OnSuccess is reload (default) or toggle.
	OnSuccess string `yaml:"on_success,omitempty"`

	// ToggleTo is the twin kind for toggle entries.
	ToggleTo string `yaml:"toggle_to,omitempty"`

	// Label is shown on the control after toggling into this kind.
	Label string `yaml:"label,omitempty"`
}

// BindingsFile is the YAML layout read by LoadBindings.
type BindingsFile struct {
	Bindings []BindingConfig `yaml:"bindings"`
}

// LoadBindings reads a bindings file into a Registry. Every toggle target
// must be defined in the same file.
func LoadBindings(r io.Reader) (Registry, error) {
	var file BindingsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse bindings: %w", err)
	}

	reg := make(Registry, len(file.Bindings))
	for i, cfg := range file.Bindings {
		if cfg.Kind == "" {
			return nil, fmt.Errorf("binding %d: kind is required", i)
		}
		if _, dup := reg[cfg.Kind]; dup {
			return nil, fmt.Errorf("binding %d: %w: %s", i, ErrDuplicateKind, cfg.Kind)
		}
		b, err := cfg.binding()
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", cfg.Kind, err)
		}
		reg[cfg.Kind] = b
	}

	for kind, b := range reg {
		if b.OnSuccess != Transition {
			continue
		}
		if _, ok := reg[b.TransitionTo]; !ok {
			return nil, fmt.Errorf("binding %q: toggle_to %q is not defined", kind, b.TransitionTo)
		}
	}
	return reg, nil
}

func (cfg BindingConfig) binding() (Binding, error) {
	var b Binding

	switch cfg.URL {
	case "upvote":
		b.URL = UpvoteURL()
	case "thread":
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = "/t"
		}
		b.URL = ThreadActionURL(prefix)
	case "literal":
		b.URL = LiteralURL()
	case "":
		return b, errors.New("url is required")
	default:
		return b, fmt.Errorf("unknown url builder %q (want upvote, thread or literal)", cfg.URL)
	}

	if cfg.Method == "" {
		b.Method = MethodAttr()
	} else {
		if !validMethod(cfg.Method) {
			return b, fmt.Errorf("%w: %q", errBadMethod, cfg.Method)
		}
		b.Method = FixedMethod(cfg.Method)
	}

	switch cfg.OnSuccess {
	case "", "reload":
		b.OnSuccess = Reload
	case "toggle":
		if cfg.ToggleTo == "" {
			return b, errors.New("toggle needs toggle_to")
		}
		b.OnSuccess = Transition
		b.TransitionTo = cfg.ToggleTo
	default:
		return b, fmt.Errorf("unknown on_success %q (want reload or toggle)", cfg.OnSuccess)
	}

	b.Label = cfg.Label
	return b, nil
}
