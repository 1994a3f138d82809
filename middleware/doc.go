// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (request_id, method, path, remote) and completion
(status, duration_ms), and records the request in the metrics package under
its route pattern. A UUID request ID is generated unless the client sent
X-Request-ID; either way it is echoed in the response.

# Caching

List endpoints read by the topics view opt out of caching:

	middleware.WithLogging(middleware.NoCache(h.ListTopics))

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux, cfg.AllowedOrigins),
	}

Only the configured origins get CORS headers, with credentials allowed so
the session cookie travels. Other cross-site origins may still read with
GET but any other method is refused with 403. Same-origin requests and
requests without an Origin header pass straight through.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)
*/
package middleware
