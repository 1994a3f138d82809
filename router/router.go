// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/handlers"
	"github.com/danielhkuo/quickly-discuss/metrics"
	"github.com/danielhkuo/quickly-discuss/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	topicHandler := handlers.NewTopicHandler(db, cfg)
	threadHandler := handlers.NewThreadHandler(db, cfg)
	actionHandler := handlers.NewActionHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Sessions and profiles
	mux.HandleFunc("POST /login", middleware.WithLogging(userHandler.Login))
	mux.HandleFunc("POST /logout", middleware.WithLogging(userHandler.Logout))
	mux.HandleFunc("GET /api/users/{username}", middleware.WithLogging(userHandler.GetUser))

	// Topics and tags; the topic list is polled by page views and must never be cached
	mux.HandleFunc("GET /api/topics", middleware.WithLogging(middleware.NoCache(topicHandler.ListTopics)))
	mux.HandleFunc("POST /api/topics", middleware.WithLogging(topicHandler.CreateTopic))
	mux.HandleFunc("GET /api/topics/{name}/tags", middleware.WithLogging(topicHandler.ListTags))
	mux.HandleFunc("POST /api/topics/{name}/tags", middleware.WithLogging(topicHandler.CreateTag))

	// Threads
	mux.HandleFunc("GET /api/topics/{name}/threads", middleware.WithLogging(threadHandler.ListThreads))
	mux.HandleFunc("POST /api/topics/{name}/threads", middleware.WithLogging(threadHandler.CreateThread))
	mux.HandleFunc("GET /t/{id}", middleware.WithLogging(threadHandler.GetThread))

	// Act-and-reload targets
	mux.HandleFunc("POST /upvote/{id}", middleware.WithLogging(actionHandler.Upvote))
	mux.HandleFunc("DELETE /upvote/{id}", middleware.WithLogging(actionHandler.Upvote))
	mux.HandleFunc("POST /t/{id}/{endpoint}", middleware.WithLogging(actionHandler.ThreadAction))
	mux.HandleFunc("DELETE /t/{id}/{endpoint}", middleware.WithLogging(actionHandler.ThreadAction))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-discuss API v1"))
	})

	return mux
}
