// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Discuss API server.

Quickly Discuss is a small topic-based discussion board. Topics hold
threads, threads collect upvotes, and admins pin or hide them. Page
controls act on a thread with one request and reload on success.

# Starting the Server

The server reads a .env file, environment variables or CLI flags:

	DATABASE_URL="file:discuss.db" SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session-secret ...

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file or PostgreSQL connection string
  - SESSION_SECRET (-session-secret): Secret for session cookie HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ADMIN_USERS (-admins): Comma-separated admin usernames
  - -env: Path of the dotenv file (default: .env)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (users, topics, threads, actions)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request IDs, JSON helpers
  - metrics: Prometheus counters served at /metrics
  - models: Request/response types
  - auth: Signed session cookies
  - db: Connection setup and schema creation
  - cliparse: Configuration parsing

The client side lives in topicsview (topic list loading and rendering)
and action (act-and-reload page controls), both driven by
cmd/discussctl.

See package documentation for each component.
*/
package main
