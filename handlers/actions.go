// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/db"
	"github.com/danielhkuo/quickly-discuss/metrics"
	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
)

// threadAction is one endpoint under /t/{id}/{endpoint}.
// POST sets the state, DELETE clears it.
type threadAction struct {
	// allowed reports whether user may act on a thread created by creatorID
	allowed func(user *models.User, creatorID string) bool
	apply   func(db *sql.DB, threadID, userID string, set bool) error
}

var threadActions = map[string]threadAction{
	models.EndpointVote: {
		allowed: func(*models.User, string) bool { return true },
		apply:   applyVote,
	},
	models.EndpointHide: {
		allowed: func(u *models.User, creatorID string) bool { return u.IsAdmin || u.ID == creatorID },
		apply: func(db *sql.DB, threadID, _ string, set bool) error {
			_, err := db.Exec(`UPDATE thread SET is_visible = $1 WHERE id = $2`, !set, threadID)
			return err
		},
	},
	models.EndpointPin: {
		allowed: func(u *models.User, _ string) bool { return u.IsAdmin },
		apply: func(db *sql.DB, threadID, _ string, set bool) error {
			_, err := db.Exec(`UPDATE thread SET is_pinned = $1 WHERE id = $2`, set, threadID)
			return err
		},
	},
}

// applyVote adds or removes the user's vote; both directions are idempotent
func applyVote(conn *sql.DB, threadID, userID string, set bool) error {
	if !set {
		_, err := conn.Exec(`
			DELETE FROM thread_vote WHERE thread_id = $1 AND user_id = $2
		`, threadID, userID)
		return err
	}
	_, err := conn.Exec(`
		INSERT INTO thread_vote (thread_id, user_id) VALUES ($1, $2)
	`, threadID, userID)
	if db.IsUniqueViolation(err) {
		return nil
	}
	return err
}

type ActionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewActionHandler(db *sql.DB, cfg cliparse.Config) *ActionHandler {
	return &ActionHandler{db: db, cfg: cfg}
}

// Upvote handles POST /upvote/{id} and DELETE /upvote/{id}
func (h *ActionHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, models.EndpointVote)
}

// ThreadAction handles POST /t/{id}/{endpoint} and DELETE /t/{id}/{endpoint}
func (h *ActionHandler) ThreadAction(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, r.PathValue("endpoint"))
}

func (h *ActionHandler) act(w http.ResponseWriter, r *http.Request, endpoint string) {
	threadID := r.PathValue("id")
	if threadID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	action, ok := threadActions[endpoint]
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Unknown thread action: "+endpoint)
		return
	}

	var set bool
	switch r.Method {
	case http.MethodPost:
		set = true
	case http.MethodDelete:
		set = false
	default:
		middleware.ErrorResponse(w, http.StatusMethodNotAllowed, "Use POST or DELETE")
		return
	}

	user := requireUser(h.db, h.cfg, w, r)
	if user == nil {
		return
	}

	var creatorID string
	// Hidden threads are acted on only by those who can see them
	err := h.db.QueryRow(
		`SELECT creator_id FROM thread WHERE id = $1 AND (is_visible OR $2 OR creator_id = $3)`,
		threadID, user.IsAdmin, user.ID,
	).Scan(&creatorID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Thread not found")
		return
	}
	if err != nil {
		slog.Error("failed to query thread", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !action.allowed(user, creatorID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not allowed to "+endpoint+" this thread")
		return
	}

	if err := action.apply(h.db, threadID, user.ID, set); err != nil {
		slog.Error("failed to apply thread action", "error", err, "endpoint", endpoint, "thread_id", threadID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to "+endpoint+" thread")
		return
	}

	metrics.ObserveAction(endpoint, r.Method)
	slog.Info("thread action applied", "endpoint", endpoint, "method", r.Method, "thread_id", threadID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, models.ActionResponse{Status: "ok"})
}
