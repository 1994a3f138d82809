// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the discussion API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Login, logout and user profiles
  - TopicHandler: Topic list (/api/topics), topic and tag creation
  - ThreadHandler: Thread listing, creation and detail
  - ActionHandler: Vote, hide and pin actions

Handlers are created via constructor functions that accept *sql.DB and Config:

	topicHandler := handlers.NewTopicHandler(db, cfg)

# Sessions

SessionUser resolves the signed session cookie to a user. Handlers that
change state answer 401 without a session and 403 when the user lacks the
right (admins for topics, tags and pins; admins or the creator for hide).

# Act-and-Reload Endpoints

The page controls post to these endpoints and reload on any 2xx:

	POST   /upvote/{id}          → Upvote (add vote)
	DELETE /upvote/{id}          → Upvote (remove vote)
	POST   /t/{id}/{endpoint}    → ThreadAction (vote | hide | pin)
	DELETE /t/{id}/{endpoint}    → ThreadAction (undo)

Every action is idempotent and answers {"status": "ok"}. Applied actions are
counted in the metrics package.

# Thread Content

Thread content is markdown. GET /t/{id} renders it with goldmark (GFM) into
content_html; raw HTML in the source is not passed through.
*/
package handlers
