// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package action implements the act-and-reload protocol for page controls.

A Controller maps control kinds to Bindings. Each Binding says how to build
the request URL and method from a Control and what a successful response
does. Controls are attached once; Attach resolves the binding and rejects a
malformed control with a *ValidationError.

	ctl := &action.Control{Kind: action.KindThreadAction, Value: "42", Endpoint: "pin", Method: "POST"}
	c := action.DefaultController(http.DefaultClient, action.ReloadFunc(reload),
		action.WithBaseURL(base))
	if err := c.Attach(ctl); err != nil {
		...
	}
	p, err := c.Click(ctx, ctl)
	if err == nil {
		res, err := p.Wait()
		...
	}

# Click

Click disables the control before the request is dispatched, so a second
click returns ErrDisabled and issues nothing. The request carries no body
and its method is passed through verbatim. On a 2xx response a Reload
binding calls the Reloader exactly once; afterwards every Click returns
ErrUnloaded. Every binding in DefaultRegistry reloads, the vote pair
included. A Transition binding, available only through Handle or a
bindings file, instead rebinds the control to its twin kind and
re-enables it.

# Failures

A failed request is logged and returned as a *StatusError. Nothing is
retried and nothing reloads. Under the default KeepDisabled policy the
control stays inert; with Reenable it becomes clickable again and the
Notifier is told.

# Bindings Files

LoadBindings reads a YAML registry:

	bindings:
	  - kind: thread_upvote_button
	    url: upvote
	    method: POST
	    on_success: toggle
	    toggle_to: thread_remove_vote_button
	  - kind: thread-action
	    url: thread
	    prefix: /t
*/
package action
