// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/quickly-discuss/action"
	"github.com/danielhkuo/quickly-discuss/models"
	"github.com/danielhkuo/quickly-discuss/topicsview"
)

func newTopicsCmd(a *app) *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printTopics(cmd.Context(), cmd.OutOrStdout(), asHTML)
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the topic list as HTML")
	return cmd
}

func (a *app) printTopics(ctx context.Context, w io.Writer, asHTML bool) error {
	view := topicsview.New(a.url("/api/topics"), topicsview.WithClient(a.client))
	if err := view.Mount(ctx); err != nil {
		return err
	}
	if asHTML {
		return view.Render(w)
	}

	nodes := view.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(w, "no topics")
		return nil
	}
	for _, n := range nodes {
		fmt.Fprintln(w, n.Name)
	}
	return nil
}

func newThreadsCmd(a *app) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "threads <topic>",
		Short: "List the threads of a topic, pinned first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printThreads(cmd.Context(), cmd.OutOrStdout(), args[0], tag)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only threads with this tag")
	return cmd
}

func (a *app) printThreads(ctx context.Context, w io.Writer, topic, tag string) error {
	q := url.Values{}
	if tag != "" {
		q.Set("tag", tag)
	}
	var list models.ThreadList
	if err := a.getJSON(ctx, "/api/topics/"+url.PathEscape(topic)+"/threads", q, &list); err != nil {
		return fmt.Errorf("list threads: %w", err)
	}

	if len(list.Pinned)+len(list.Unpinned) == 0 {
		fmt.Fprintln(w, "no threads")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tTITLE\tBY\tCREATED")
	for _, th := range append(list.Pinned, list.Unpinned...) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			th.ID, formatScore(th), formatTitle(th), th.Creator, humanize.Time(th.CreatedAt))
	}
	return tw.Flush()
}

func formatScore(th models.Thread) string {
	s := humanize.Comma(int64(th.Score))
	if th.Upvoted {
		s += "*"
	}
	return s
}

func formatTitle(th models.Thread) string {
	var flags []string
	if th.IsPinned {
		flags = append(flags, "pinned")
	}
	if !th.IsVisible {
		flags = append(flags, "hidden")
	}
	for _, tag := range th.Tags {
		flags = append(flags, "#"+tag.Name)
	}
	if len(flags) == 0 {
		return th.Title
	}
	return th.Title + " [" + strings.Join(flags, " ") + "]"
}

func newVoteCmd(a *app, use string, up bool) *cobra.Command {
	short := "Upvote a thread"
	kind := action.KindUpvote
	if !up {
		short = "Remove your vote from a thread"
		kind = action.KindRemoveVote
	}

	return &cobra.Command{
		Use:   use + " <thread-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := &action.Control{Kind: kind, Value: args[0]}
			c := action.DefaultController(a.client, a.threadReloader(cmd, args[0]), action.WithBaseURL(a.base))
			_, err := a.click(cmd.Context(), c, ctl)
			return err
		},
	}
}

func newActCmd(a *app) *cobra.Command {
	var (
		method       string
		kind         string
		bindingsPath string
		literal      string
	)

	cmd := &cobra.Command{
		Use:   "act <thread-id> [endpoint]",
		Short: "Perform a thread action (vote, hide, pin) and reload",
		Long: `act sends one request for a thread action, the same way a page
control does. POST applies the action and DELETE undoes it. On success the
thread is fetched again and printed.

--bindings loads control kinds from a YAML file; --kind picks one of them.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl := &action.Control{
				Kind:   kind,
				Value:  args[0],
				Method: method,
				URL:    literal,
			}
			if len(args) == 2 {
				ctl.Endpoint = args[1]
			}

			reload := a.threadReloader(cmd, args[0])

			var c *action.Controller
			if bindingsPath != "" {
				f, err := os.Open(bindingsPath)
				if err != nil {
					return err
				}
				reg, err := action.LoadBindings(f)
				f.Close()
				if err != nil {
					return err
				}
				c = action.NewController(a.client, reload, action.WithBaseURL(a.base))
				if err := c.HandleAll(reg); err != nil {
					return err
				}
			} else {
				c = action.DefaultController(a.client, reload, action.WithBaseURL(a.base))
			}

			_, err := a.click(cmd.Context(), c, ctl)
			return err
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "POST", "HTTP method, sent as given")
	cmd.Flags().StringVar(&kind, "kind", action.KindThreadAction, "Control kind")
	cmd.Flags().StringVar(&bindingsPath, "bindings", "", "YAML bindings file")
	cmd.Flags().StringVar(&literal, "url", "", "Literal target URL for post-action controls")
	return cmd
}

// threadReloader re-fetches thread id and prints it, the way a page reload
// re-renders the thread after an action.
func (a *app) threadReloader(cmd *cobra.Command, id string) action.Reloader {
	return action.ReloadFunc(func() {
		if err := a.printThread(cmd.Context(), cmd.OutOrStdout(), id); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "reload: %v\n", err)
		}
	})
}

// click attaches ctl and waits for its single request.
func (a *app) click(ctx context.Context, c *action.Controller, ctl *action.Control) (*action.Result, error) {
	if err := c.Attach(ctl); err != nil {
		return nil, err
	}
	p, err := c.Click(ctx, ctl)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

func (a *app) printThread(ctx context.Context, w io.Writer, id string) error {
	var th models.Thread
	if err := a.getJSON(ctx, "/t/"+url.PathEscape(id), nil, &th); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s  %s  score %s  by %s, %s\n",
		th.ID, formatTitle(th), formatScore(th), th.Creator, humanize.Time(th.CreatedAt))
	return nil
}
