// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session signing and ID generation utilities.

# Sessions

A session is a cookie holding the user ID and an HMAC-SHA256 signature:

	value := auth.SignSession(userID, secret)      // "<id>.<sig>"
	userID, err := auth.VerifySession(value, secret)

The signature is URL-safe base64 encoded without padding. Since it's
deterministic, validation needs no session table.

HTTP helpers wrap the cookie handling:

	auth.SetSessionCookie(w, userID, secret)
	userID, err := auth.SessionUserID(r, secret)
	auth.ClearSessionCookie(w)

SessionUserID returns ErrNoSession when the cookie is absent and
ErrInvalidSession when it has been tampered with.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
