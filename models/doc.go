// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LoginRequest: Username to sign in as
  - CreateTopicRequest: Topic name, title, description
  - CreateThreadRequest: Thread title, markdown content, optional tag
  - CreateTagRequest: Tag name

# Response Types

  - LoginResponse, CreateTopicResponse, CreateThreadResponse, CreateTagResponse
  - ActionResponse: {"status": "ok"} from vote, hide and pin endpoints
  - ThreadList: Pinned threads first, then the rest
  - UserProfile: A user and the threads they created

# Domain Types

TopicItem is the exact wire shape served at GET /api/topics and consumed by
the topics view:

	[{"id": "...", "name": "..."}]

Topic, Thread, Tag and User mirror the database rows. Thread.URL returns the
path the thread actions hang off:

	thread.URL() // "/t/<id>"

# Thread Endpoints

	EndpointVote = "vote"
	EndpointHide = "hide"
	EndpointPin  = "pin"

# Error Response

All errors return:

	{"error": "Bad Request", "message": "details"}
*/
package models
