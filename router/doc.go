// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Discuss API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics - Prometheus exposition

Sessions:

	POST /login               - Sign in (creates the user on first login)
	POST /logout              - Clear the session cookie
	GET  /api/users/{username} - Profile and created threads

Topics (creation is admin only):

	GET  /api/topics              - [{id, name}], never cached
	POST /api/topics              - Create topic
	GET  /api/topics/{name}/tags  - List tags
	POST /api/topics/{name}/tags  - Create tag

Threads:

	GET  /api/topics/{name}/threads - Pinned and unpinned threads (?tag=)
	POST /api/topics/{name}/threads - Create thread
	GET  /t/{id}                    - Thread with rendered content

Actions (POST applies, DELETE undoes):

	/upvote/{id}
	/t/{id}/{endpoint} - endpoint is vote, hide or pin
*/
package router
