package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Thread action endpoints accepted by /t/{id}/{endpoint}
const (
	EndpointVote = "vote"
	EndpointHide = "hide"
	EndpointPin  = "pin"
)

// Request types

type LoginRequest struct {
	Username string `json:"username"`
}

type CreateTopicRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreateThreadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	TagID   string `json:"tag_id,omitempty"`
}

type CreateTagRequest struct {
	Name string `json:"name"`
}

// Response types

type LoginResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type CreateTopicResponse struct {
	TopicID string `json:"topic_id"`
}

type CreateThreadResponse struct {
	ThreadID string `json:"thread_id"`
	URL      string `json:"url"`
}

type CreateTagResponse struct {
	TagID string `json:"tag_id"`
}

// ActionResponse is returned by every act-and-reload endpoint
type ActionResponse struct {
	Status string `json:"status"`
}

type ThreadList struct {
	Pinned   []Thread `json:"pinned"`
	Unpinned []Thread `json:"unpinned"`
}

type UserProfile struct {
	User           User     `json:"user"`
	CreatedThreads []Thread `json:"created_threads"`
}

// Domain types

// TopicItem is the wire shape of GET /api/topics
type TopicItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts the id as a JSON string or number. A number is kept
// in the form it was written, so 7 becomes "7".
func (t *TopicItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		t.ID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &t.ID); err != nil {
			return err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(id))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Errorf("topic id must be a string or number, got %s", id)
		}
		t.ID = n.String()
	}
	t.Name = raw.Name
	return nil
}

type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type Thread struct {
	ID          string    `json:"id"`
	TopicID     string    `json:"topic_id"`
	TopicName   string    `json:"topic_name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	Creator     string    `json:"creator"`
	IsPinned    bool      `json:"is_pinned"`
	IsVisible   bool      `json:"is_visible"`
	Score       int       `json:"score"`
	Upvoted     bool      `json:"upvoted"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// URL returns the canonical path of a thread
func (t Thread) URL() string {
	return "/t/" + t.ID
}

type Tag struct {
	ID      string `json:"id"`
	TopicID string `json:"topic_id"`
	Name    string `json:"name"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
