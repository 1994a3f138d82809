// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-discuss/auth"
	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
)

// SessionUser returns the signed-in user, or nil when the request carries
// no valid session. An error is only returned for database failures.
func SessionUser(db *sql.DB, cfg cliparse.Config, r *http.Request) (*models.User, error) {
	userID, err := auth.SessionUserID(r, cfg.SessionSecret)
	if err != nil {
		return nil, nil
	}

	var user models.User
	err = db.QueryRow(`
		SELECT id, username, is_admin, created_at
		FROM app_user
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username, &user.IsAdmin, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// requireUser writes 401 and returns nil when nobody is signed in
func requireUser(db *sql.DB, cfg cliparse.Config, w http.ResponseWriter, r *http.Request) *models.User {
	user, err := SessionUser(db, cfg, r)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil
	}
	if user == nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Login required")
		return nil
	}
	return user
}

// requireAdmin writes 401/403 and returns nil unless an admin is signed in
func requireAdmin(db *sql.DB, cfg cliparse.Config, w http.ResponseWriter, r *http.Request) *models.User {
	user := requireUser(db, cfg, w, r)
	if user == nil {
		return nil
	}
	if !user.IsAdmin {
		middleware.ErrorResponse(w, http.StatusForbidden, "Admin only")
		return nil
	}
	return user
}

// validName accepts lowercase URL-safe names of 2-50 characters
func validName(name string) bool {
	if len(name) < 2 || len(name) > 50 {
		return false
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}
