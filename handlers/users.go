// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-discuss/auth"
	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
)

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Login handles POST /login
// Signs the user up on first login and sets the session cookie
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(username) < 2 || len(username) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	isAdmin := h.cfg.IsAdmin(username)

	var userID string
	err := h.db.QueryRow(`
		SELECT id FROM app_user WHERE username = $1
	`, username).Scan(&userID)

	switch {
	case err == sql.ErrNoRows:
		userID, err = auth.GenerateID(16)
		if err != nil {
			slog.Error("failed to generate user ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
			return
		}
		_, err = h.db.Exec(`
			INSERT INTO app_user (id, username, is_admin, created_at)
			VALUES ($1, $2, $3, $4)
		`, userID, username, isAdmin, time.Now())
		if err != nil {
			slog.Error("failed to insert user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
			return
		}
		slog.Info("user signed up", "user_id", userID, "username", username)

	case err != nil:
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return

	default:
		// Keep the admin flag in step with configuration
		_, err = h.db.Exec(`UPDATE app_user SET is_admin = $1 WHERE id = $2`, isAdmin, userID)
		if err != nil {
			slog.Error("failed to update admin flag", "error", err)
		}
	}

	auth.SetSessionCookie(w, userID, h.cfg.SessionSecret)

	slog.Info("user logged in", "user_id", userID, "username", username)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
	})
}

// Logout handles POST /logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	middleware.JSONResponse(w, http.StatusOK, models.ActionResponse{Status: "ok"})
}

// GetUser handles GET /api/users/{username}
// Returns the user and the visible threads they created
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(r.PathValue("username"))
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	var user models.User
	err := h.db.QueryRow(`
		SELECT id, username, is_admin, created_at
		FROM app_user
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.IsAdmin, &user.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	viewer, err := SessionUser(h.db, h.cfg, r)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	threads, err := queryThreads(h.db, threadFilter{creatorID: user.ID}, viewer)
	if err != nil {
		slog.Error("failed to query threads", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserProfile{
		User:           user,
		CreatedThreads: threads,
	})
}
