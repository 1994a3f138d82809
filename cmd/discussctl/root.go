// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/quickly-discuss/models"
)

// app carries the settings shared by every subcommand.
type app struct {
	server   string
	username string
	logLevel string

	client *http.Client
	base   *url.URL
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "discussctl",
		Short: "Terminal client for a Quickly Discuss server",
		Long: `discussctl lists topics and threads and performs the same
vote, pin and hide actions as the page controls.

Actions that reload the page re-fetch and print the affected state.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	server := os.Getenv("DISCUSS_SERVER")
	if server == "" {
		server = "http://localhost:3318"
	}
	cmd.PersistentFlags().StringVar(&a.server, "server", server, "Server base URL (env DISCUSS_SERVER)")
	cmd.PersistentFlags().StringVarP(&a.username, "user", "u", os.Getenv("DISCUSS_USER"), "Log in as this user first (env DISCUSS_USER)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newTopicsCmd(a))
	cmd.AddCommand(newThreadsCmd(a))
	cmd.AddCommand(newVoteCmd(a, "upvote", true))
	cmd.AddCommand(newVoteCmd(a, "unvote", false))
	cmd.AddCommand(newActCmd(a))

	return cmd
}

func (a *app) setup(ctx context.Context) error {
	level := slog.LevelWarn
	switch strings.ToLower(a.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	base, err := url.Parse(strings.TrimSuffix(a.server, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid --server %q", a.server)
	}
	a.base = base

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: 15 * time.Second}
	}
	a.client.Jar = jar

	if a.username == "" {
		return nil
	}
	return a.login(ctx)
}

// url returns the absolute URL of a server path.
func (a *app) url(path string) string {
	return a.base.ResolveReference(&url.URL{Path: path}).String()
}

func (a *app) login(ctx context.Context) error {
	body, err := json.Marshal(models.LoginRequest{Username: a.username})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url("/login"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.LoginResponse
	if err := a.do(req, &resp); err != nil {
		return fmt.Errorf("login as %s: %w", a.username, err)
	}
	slog.Debug("logged in", "user", resp.Username, "admin", resp.IsAdmin)
	return nil
}

// getJSON fetches path and decodes the JSON body into v.
func (a *app) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	u := a.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return a.do(req, v)
}

func (a *app) do(req *http.Request, v any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, e.Message)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
