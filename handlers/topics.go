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
	"github.com/danielhkuo/quickly-discuss/db"
	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
)

type TopicHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewTopicHandler(db *sql.DB, cfg cliparse.Config) *TopicHandler {
	return &TopicHandler{db: db, cfg: cfg}
}

// ListTopics handles GET /api/topics
// Returns a JSON array of {id, name}, the topics view's input contract
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, name FROM topic ORDER BY name
	`)
	if err != nil {
		slog.Error("failed to query topics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	topics := []models.TopicItem{}
	for rows.Next() {
		var item models.TopicItem
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			slog.Error("failed to scan topic", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		topics = append(topics, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate topics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, topics)
}

// CreateTopic handles POST /api/topics (admin)
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(h.db, h.cfg, w, r) == nil {
		return
	}

	var req models.CreateTopicRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if !validName(name) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be 2-50 characters of a-z, 0-9, - or _")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	topicID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate topic ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create topic")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO topic (id, name, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, topicID, name, strings.TrimSpace(req.Title), req.Description, time.Now())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Topic name already taken")
		return
	}
	if err != nil {
		slog.Error("failed to insert topic", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create topic")
		return
	}

	slog.Info("topic created", "topic_id", topicID, "name", name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTopicResponse{TopicID: topicID})
}

// ListTags handles GET /api/topics/{name}/tags
func (h *TopicHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	topicID, ok := lookupTopic(h.db, w, r.PathValue("name"))
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, topic_id, name FROM tag WHERE topic_id = $1 ORDER BY name
	`, topicID)
	if err != nil {
		slog.Error("failed to query tags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.TopicID, &tag.Name); err != nil {
			slog.Error("failed to scan tag", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		tags = append(tags, tag)
	}

	middleware.JSONResponse(w, http.StatusOK, tags)
}

// CreateTag handles POST /api/topics/{name}/tags (admin)
func (h *TopicHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(h.db, h.cfg, w, r) == nil {
		return
	}

	topicID, ok := lookupTopic(h.db, w, r.PathValue("name"))
	if !ok {
		return
	}

	var req models.CreateTagRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if !validName(name) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be 2-50 characters of a-z, 0-9, - or _")
		return
	}

	tagID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate tag ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create tag")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO tag (id, topic_id, name) VALUES ($1, $2, $3)
	`, tagID, topicID, name)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Tag already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert tag", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create tag")
		return
	}

	slog.Info("tag created", "tag_id", tagID, "topic_id", topicID, "name", name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTagResponse{TagID: tagID})
}
