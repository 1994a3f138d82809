// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the signed session
const SessionCookieName = "discuss_session"

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrNoSession      = errors.New("no session")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// signature creates an HMAC over the user ID.
// Deterministic, so sessions can be validated without server-side storage.
func signature(userID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner tokens
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// SignSession returns the cookie value for a user: "<userID>.<signature>"
func SignSession(userID, secret string) string {
	return userID + "." + signature(userID, secret)
}

// VerifySession checks a cookie value and returns the user ID it carries
func VerifySession(value, secret string) (string, error) {
	userID, sig, ok := strings.Cut(value, ".")
	if !ok || userID == "" || sig == "" {
		return "", ErrInvalidSession
	}
	expected := signature(userID, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrInvalidSession
	}
	return userID, nil
}

// SetSessionCookie writes the signed session cookie
func SetSessionCookie(w http.ResponseWriter, userID, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    SignSession(userID, secret),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// SessionUserID extracts and verifies the session cookie from a request
func SessionUserID(r *http.Request, secret string) (string, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return VerifySession(c.Value, secret)
}
