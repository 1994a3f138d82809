// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-discuss/middleware"
	"github.com/danielhkuo/quickly-discuss/models"
	"github.com/danielhkuo/quickly-discuss/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "quickly-discuss API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/"},

		{"POST", "/login"},
		{"POST", "/logout"},
		{"GET", "/api/users/someone"},

		{"GET", "/api/topics"},
		{"POST", "/api/topics"},
		{"GET", "/api/topics/csc108/tags"},
		{"POST", "/api/topics/csc108/tags"},
		{"GET", "/api/topics/csc108/threads"},
		{"POST", "/api/topics/csc108/threads"},
		{"GET", "/t/some-thread"},

		{"POST", "/upvote/some-thread"},
		{"DELETE", "/upvote/some-thread"},
		{"POST", "/t/some-thread/pin"},
		{"DELETE", "/t/some-thread/hide"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" && strings.HasPrefix(tc.path, "/api/") {
				t.Errorf("Route %s %s is missing request logging", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"PUT to upvote endpoint", "PUT", "/upvote/some-thread", http.StatusMethodNotAllowed},
		{"DELETE topic list", "DELETE", "/api/topics", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestTopicsAreNotCached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mux := NewRouter(db, testutil.GetTestConfig())
	testutil.CreateTestTopic(t, db, "csc108")

	req := httptest.NewRequest("GET", "/api/topics?_=1700000000000", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Expected no-store Cache-Control, got %q", cc)
	}

	var items []models.TopicItem
	testutil.AssertJSON(t, w, &items)
	if len(items) != 1 || items[0].Name != "csc108" {
		t.Errorf("Unexpected topics: %+v", items)
	}
}

// TestActAndReloadFlow drives the same sequence a page control does:
// act on a thread, then reload the list and observe the new state
func TestActAndReloadFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	userID := testutil.CreateTestUser(t, db, "bob", false)
	adminID := testutil.CreateTestUser(t, db, "admin", true)
	topicID := testutil.CreateTestTopic(t, db, "csc108")
	threadID := testutil.CreateTestThread(t, db, topicID, userID, "Flow")

	serve := func(method, path string, userID string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest(method, path, nil, testutil.SessionCookie(cfg, userID))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	testutil.AssertStatus(t, serve("POST", "/upvote/"+threadID, userID), http.StatusOK)
	testutil.AssertStatus(t, serve("POST", "/t/"+threadID+"/pin", adminID), http.StatusOK)

	w := serve("GET", "/api/topics/csc108/threads", userID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.ThreadList
	testutil.AssertJSON(t, w, &list)
	if len(list.Pinned) != 1 {
		t.Fatalf("Expected pinned thread after pin action, got %+v", list)
	}
	if th := list.Pinned[0]; th.Score != 1 || !th.Upvoted {
		t.Errorf("Expected upvoted thread with score 1, got %+v", th)
	}

	testutil.AssertStatus(t, serve("DELETE", "/upvote/"+threadID, userID), http.StatusOK)
	if n := testutil.CountVotes(t, db, threadID); n != 0 {
		t.Errorf("Expected vote removed, got %d", n)
	}
}
