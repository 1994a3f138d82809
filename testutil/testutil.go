// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-discuss/auth"
	"github.com/danielhkuo/quickly-discuss/cliparse"
	"github.com/danielhkuo/quickly-discuss/db"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Unique name per test so parallel packages never share state
	name, _ := auth.GenerateID(8)
	conn, err := db.Open(context.Background(), "sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  "sqlite",
		SessionSecret: "test-session-secret",
		AdminUsers:    []string{"admin"},
	}
}

// CreateTestUser inserts a user and returns its ID
func CreateTestUser(t *testing.T, db *sql.DB, username string, isAdmin bool) string {
	t.Helper()

	userID, _ := auth.GenerateID(16)
	_, err := db.Exec(`
		INSERT INTO app_user (id, username, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, username, isAdmin, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// CreateTestTopic inserts a topic and returns its ID
func CreateTestTopic(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	topicID, _ := auth.GenerateID(16)
	_, err := db.Exec(`
		INSERT INTO topic (id, name, title, description, created_at)
		VALUES ($1, $2, $3, '', $4)
	`, topicID, name, "Topic "+name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test topic: %v", err)
	}

	return topicID
}

// CreateTestThread inserts a visible, unpinned thread and returns its ID
func CreateTestThread(t *testing.T, db *sql.DB, topicID, creatorID, title string) string {
	t.Helper()

	threadID, _ := auth.GenerateID(16)
	_, err := db.Exec(`
		INSERT INTO thread (id, topic_id, title, content, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, threadID, topicID, title, "Content of "+title, creatorID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test thread: %v", err)
	}

	return threadID
}

// CreateTestTag inserts a tag for a topic and returns its ID
func CreateTestTag(t *testing.T, db *sql.DB, topicID, name string) string {
	t.Helper()

	tagID, _ := auth.GenerateID(12)
	_, err := db.Exec(`
		INSERT INTO tag (id, topic_id, name) VALUES ($1, $2, $3)
	`, tagID, topicID, name)
	if err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}

	return tagID
}

// TagTestThread links a thread to a tag
func TagTestThread(t *testing.T, db *sql.DB, threadID, tagID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO thread_tag (thread_id, tag_id) VALUES ($1, $2)
	`, threadID, tagID)
	if err != nil {
		t.Fatalf("Failed to tag test thread: %v", err)
	}
}

// VoteTestThread records a vote by userID on threadID
func VoteTestThread(t *testing.T, db *sql.DB, threadID, userID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO thread_vote (thread_id, user_id) VALUES ($1, $2)
	`, threadID, userID)
	if err != nil {
		t.Fatalf("Failed to vote on test thread: %v", err)
	}
}

// CountVotes returns the number of votes on a thread
func CountVotes(t *testing.T, db *sql.DB, threadID string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM thread_vote WHERE thread_id = $1`, threadID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// SessionCookie returns a signed session cookie for userID
func SessionCookie(cfg cliparse.Config, userID string) *http.Cookie {
	return &http.Cookie{
		Name:  auth.SessionCookieName,
		Value: auth.SignSession(userID, cfg.SessionSecret),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, cookie *http.Cookie) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
