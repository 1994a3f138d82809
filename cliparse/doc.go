// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: sqlite path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - SessionSecret: Secret for session cookie HMAC (required)
  - AdminUsers: Usernames that get admin rights on login
  - AllowedOrigins: Frontend origins allowed to make credentialed CORS requests

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-env             Dotenv file (default: .env, missing file is fine)
	-session-secret  Session cookie secret
	-admins          Comma separated admin usernames
	-origins         Comma separated CORS origins

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	SESSION_SECRET  → -session-secret
	ADMIN_USERS     → -admins
	ALLOWED_ORIGINS → -origins

The dotenv file is read before the fallback, but never overrides variables
already present in the environment. CLI flags take precedence over both.
*/
package cliparse
