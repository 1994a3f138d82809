// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Opening a Database

Open picks the driver from the configured type, pings, applies sqlite
pragmas and creates the schema:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

sqlite uses modernc.org/sqlite (pure Go), postgres uses lib/pq. Queries use
$N placeholders, which both drivers accept.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user: Usernames and admin flag
  - topic: Discussion topics (the /api/topics list)
  - thread: Threads posted inside a topic, with pin and visibility flags
  - thread_vote: One row per (thread, user) upvote
  - tag: Per-topic tags
  - thread_tag: Links threads to tags

# Relationships

	topic 1──* thread
	topic 1──* tag
	app_user 1──* thread (creator)
	thread *──* app_user (via thread_vote)
	thread *──* tag (via thread_tag)

All foreign keys use ON DELETE CASCADE.

# Constraint Errors

IsUniqueViolation recognizes duplicate-key errors from either driver:

	if db.IsUniqueViolation(err) {
		// 409 Conflict
	}
*/
package db
