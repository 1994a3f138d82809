// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-discuss/auth"
	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
)

type ThreadHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewThreadHandler(db *sql.DB, cfg cliparse.Config) *ThreadHandler {
	return &ThreadHandler{db: db, cfg: cfg}
}

// threadFilter narrows queryThreads; zero values mean "any"
type threadFilter struct {
	threadID  string
	topicID   string
	creatorID string
	tagName   string
}

// queryThreads loads threads with score, the viewer's vote and tags.
// Hidden threads are only returned to admins and their creators.
func queryThreads(db *sql.DB, f threadFilter, viewer *models.User) ([]models.Thread, error) {
	var viewerID string
	var viewerIsAdmin bool
	if viewer != nil {
		viewerID = viewer.ID
		viewerIsAdmin = viewer.IsAdmin
	}

	args := []any{viewerID, viewerIsAdmin}
	where := []string{"(t.is_visible OR $2 OR t.creator_id = $1)"}
	addCond := func(format string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(format, len(args)))
	}
	if f.threadID != "" {
		addCond("t.id = $%d", f.threadID)
	}
	if f.topicID != "" {
		addCond("t.topic_id = $%d", f.topicID)
	}
	if f.creatorID != "" {
		addCond("t.creator_id = $%d", f.creatorID)
	}
	if f.tagName != "" {
		addCond(`EXISTS(
			SELECT 1 FROM thread_tag tt JOIN tag g ON g.id = tt.tag_id
			WHERE tt.thread_id = t.id AND g.name = $%d
		)`, f.tagName)
	}

	rows, err := db.Query(`
		SELECT t.id, t.topic_id, tp.name, t.title, t.content, u.username,
		       t.is_pinned, t.is_visible, t.created_at,
		       (SELECT COUNT(*) FROM thread_vote v WHERE v.thread_id = t.id) AS score,
		       EXISTS(SELECT 1 FROM thread_vote v WHERE v.thread_id = t.id AND v.user_id = $1) AS upvoted
		FROM thread t
		JOIN topic tp ON tp.id = t.topic_id
		JOIN app_user u ON u.id = t.creator_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY score DESC, t.created_at DESC, t.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	threads := []models.Thread{}
	for rows.Next() {
		var th models.Thread
		if err := rows.Scan(
			&th.ID, &th.TopicID, &th.TopicName, &th.Title, &th.Content, &th.Creator,
			&th.IsPinned, &th.IsVisible, &th.CreatedAt, &th.Score, &th.Upvoted,
		); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		th.Tags = []models.Tag{}
		threads = append(threads, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	rows.Close()

	if err := loadThreadTags(db, threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// loadThreadTags fills Tags on each thread with one query
func loadThreadTags(db *sql.DB, threads []models.Thread) error {
	if len(threads) == 0 {
		return nil
	}

	index := make(map[string]int, len(threads))
	placeholders := make([]string, len(threads))
	args := make([]any, len(threads))
	for i, th := range threads {
		index[th.ID] = i
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = th.ID
	}

	rows, err := db.Query(`
		SELECT tt.thread_id, g.id, g.topic_id, g.name
		FROM thread_tag tt
		JOIN tag g ON g.id = tt.tag_id
		WHERE tt.thread_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY g.name
	`, args...)
	if err != nil {
		return fmt.Errorf("query thread tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var threadID string
		var tag models.Tag
		if err := rows.Scan(&threadID, &tag.ID, &tag.TopicID, &tag.Name); err != nil {
			return fmt.Errorf("scan thread tag: %w", err)
		}
		i := index[threadID]
		threads[i].Tags = append(threads[i].Tags, tag)
	}
	return rows.Err()
}

// lookupTopic resolves a topic name to its ID, writing 404/500 on failure
func lookupTopic(db *sql.DB, w http.ResponseWriter, name string) (string, bool) {
	var topicID string
	err := db.QueryRow(`SELECT id FROM topic WHERE name = $1`, strings.ToLower(name)).Scan(&topicID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Topic not found")
		return "", false
	}
	if err != nil {
		slog.Error("failed to query topic", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	return topicID, true
}

// ListThreads handles GET /api/topics/{name}/threads
// Pinned threads come first; ?tag= narrows to one tag
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	topicID, ok := lookupTopic(h.db, w, r.PathValue("name"))
	if !ok {
		return
	}

	viewer, err := SessionUser(h.db, h.cfg, r)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	threads, err := queryThreads(h.db, threadFilter{
		topicID: topicID,
		tagName: strings.ToLower(r.URL.Query().Get("tag")),
	}, viewer)
	if err != nil {
		slog.Error("failed to query threads", "error", err, "topic_id", topicID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	list := models.ThreadList{Pinned: []models.Thread{}, Unpinned: []models.Thread{}}
	for _, th := range threads {
		if th.IsPinned {
			list.Pinned = append(list.Pinned, th)
		} else {
			list.Unpinned = append(list.Unpinned, th)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// CreateThread handles POST /api/topics/{name}/threads
// The thread and its tag link are written in one transaction
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := requireUser(h.db, h.cfg, w, r)
	if user == nil {
		return
	}

	topicID, ok := lookupTopic(h.db, w, r.PathValue("name"))
	if !ok {
		return
	}

	var req models.CreateThreadRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Title) > 200 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title must be at most 200 characters")
		return
	}

	if req.TagID != "" {
		var exists bool
		err := h.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM tag WHERE id = $1 AND topic_id = $2)
		`, req.TagID, topicID).Scan(&exists)
		if err != nil {
			slog.Error("failed to verify tag", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid tag_id: "+req.TagID)
			return
		}
	}

	threadID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate thread ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create thread")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO thread (id, topic_id, title, content, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, threadID, topicID, req.Title, req.Content, user.ID, time.Now())
	if err != nil {
		slog.Error("failed to insert thread", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create thread")
		return
	}

	if req.TagID != "" {
		_, err = tx.Exec(`
			INSERT INTO thread_tag (thread_id, tag_id) VALUES ($1, $2)
		`, threadID, req.TagID)
		if err != nil {
			slog.Error("failed to insert thread tag", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create thread")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create thread")
		return
	}

	slog.Info("thread created", "thread_id", threadID, "topic_id", topicID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateThreadResponse{
		ThreadID: threadID,
		URL:      models.Thread{ID: threadID}.URL(),
	})
}

// GetThread handles GET /t/{id}
// Returns the thread with its markdown content rendered to HTML
func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	if threadID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	viewer, err := SessionUser(h.db, h.cfg, r)
	if err != nil {
		slog.Error("failed to load session user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	threads, err := queryThreads(h.db, threadFilter{threadID: threadID}, viewer)
	if err != nil {
		slog.Error("failed to query thread", "error", err, "thread_id", threadID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(threads) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Thread not found")
		return
	}

	thread := threads[0]
	thread.ContentHTML, err = renderMarkdown(thread.Content)
	if err != nil {
		slog.Error("failed to render thread content", "error", err, "thread_id", threadID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render thread")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, thread)
}
