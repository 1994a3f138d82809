// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package topicsview loads and renders the read-only topic list.

A View is built for one URL (normally /api/topics) and mounted once:

	v := topicsview.New(base+"/api/topics", topicsview.OnRender(func(nodes []topicsview.Node) {
		...
	}))
	if err := v.Mount(ctx); err != nil {
		// logged already; v still holds its previous (empty) list
	}
	v.Render(os.Stdout)

Mount issues exactly one GET with caching disabled (a _=<unix-millis> query
parameter plus Cache-Control: no-cache). The response must be a JSON array
of {id, name} objects with unique ids; anything else is ErrMalformedResponse
and leaves the view untouched. Rendered nodes are keyed by topic id, never by
position.
*/
package topicsview
