// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package action

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDoer answers every request with status and remembers what it saw.
type recordingDoer struct {
	mu       sync.Mutex
	status   int
	err      error
	gate     chan struct{} // when set, Do blocks until it is closed
	requests []*http.Request
	// disabledAtDo records ctl.Disabled() when the request arrived
	watch        *Control
	disabledAtDo []bool
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	if d.watch != nil {
		d.disabledAtDo = append(d.disabledAtDo, d.watch.Disabled())
	}
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Body:       io.NopCloser(strings.NewReader(`{"status":"ok"}`)),
		Request:    req,
	}, nil
}

func (d *recordingDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func (d *recordingDoer) last() *http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

type countingReloader struct{ n atomic.Int32 }

func (r *countingReloader) Reload() { r.n.Add(1) }

func mustBase(t *testing.T) Option {
	t.Helper()
	u, err := url.Parse("http://forum.test")
	require.NoError(t, err)
	return WithBaseURL(u)
}

func TestURLBuilders(t *testing.T) {
	ctl := &Control{Value: "42", Endpoint: "pin"}

	t.Run("thread action", func(t *testing.T) {
		u, err := ThreadActionURL("/t")(ctl)
		require.NoError(t, err)
		assert.Equal(t, "/t/42/pin", u)
	})

	t.Run("prefix with trailing slash", func(t *testing.T) {
		u, err := ThreadActionURL("/t/")(ctl)
		require.NoError(t, err)
		assert.Equal(t, "/t/42/pin", u)
	})

	t.Run("thread action without endpoint", func(t *testing.T) {
		u, err := ThreadActionURL("/t")(&Control{Value: "42"})
		require.NoError(t, err)
		assert.Equal(t, "/t/42", u)
	})

	t.Run("upvote", func(t *testing.T) {
		u, err := UpvoteURL()(&Control{Value: "42"})
		require.NoError(t, err)
		assert.Equal(t, "/upvote/42", u)
	})

	t.Run("literal", func(t *testing.T) {
		u, err := LiteralURL()(&Control{URL: "/t/7/hide"})
		require.NoError(t, err)
		assert.Equal(t, "/t/7/hide", u)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := UpvoteURL()(&Control{})
		assert.Error(t, err)
		_, err = ThreadActionURL("/t")(&Control{Endpoint: "pin"})
		assert.Error(t, err)
	})

	t.Run("endpoint required", func(t *testing.T) {
		_, err := EndpointRequired(ThreadActionURL("/t"))(&Control{Value: "42"})
		assert.Error(t, err)
	})
}

func TestMethodResolvers(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{"DELETE", false},
		{"delete", false},
		{"PoSt", false},
		{"GET", false},
		{"", true},
		{"BAD METHOD", true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, err := MethodAttr()(&Control{Method: tt.method})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.method, m, "method must be passed through untransformed")
		})
	}

	m, err := FixedMethod("POST")(&Control{Method: "DELETE"})
	require.NoError(t, err)
	assert.Equal(t, "POST", m)
}

func TestAttach_Validation(t *testing.T) {
	c := DefaultController(&recordingDoer{status: 200}, &countingReloader{})

	tests := []struct {
		name  string
		ctl   *Control
		field string
	}{
		{"unknown kind", &Control{Kind: "mystery", Value: "1"}, "kind"},
		{"upvote without value", &Control{Kind: KindUpvote}, "url"},
		{"thread action without endpoint", &Control{Kind: KindThreadAction, Value: "1", Method: "POST"}, "url"},
		{"thread action without method", &Control{Kind: KindThreadAction, Value: "1", Endpoint: "pin"}, "method"},
		{"post action without url", &Control{Kind: KindPostAction, Method: "POST"}, "url"},
		{"post action with bad url", &Control{Kind: KindPostAction, URL: "http://[::1", Method: "POST"}, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Attach(tt.ctl)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.ctl.Kind, ve.Kind)

			_, err = c.Click(context.Background(), tt.ctl)
			assert.ErrorIs(t, err, ErrNotAttached)
		})
	}

	t.Run("unknown kind wraps ErrUnknownKind", func(t *testing.T) {
		assert.ErrorIs(t, c.Attach(&Control{Kind: "mystery"}), ErrUnknownKind)
	})
}

func TestHandle(t *testing.T) {
	c := NewController(&recordingDoer{status: 200}, &countingReloader{})

	require.NoError(t, c.Handle("vote", Binding{URL: UpvoteURL(), Method: FixedMethod("POST")}))
	assert.ErrorIs(t, c.Handle("vote", Binding{URL: UpvoteURL(), Method: FixedMethod("POST")}), ErrDuplicateKind)
	assert.Error(t, c.Handle("", Binding{URL: UpvoteURL(), Method: FixedMethod("POST")}))
	assert.Error(t, c.Handle("nourl", Binding{Method: FixedMethod("POST")}))
	assert.Error(t, c.Handle("notarget", Binding{URL: UpvoteURL(), Method: FixedMethod("POST"), OnSuccess: Transition}))

	t.Run("transition target must exist at attach", func(t *testing.T) {
		require.NoError(t, c.Handle("half", Binding{
			URL: UpvoteURL(), Method: FixedMethod("POST"), OnSuccess: Transition, TransitionTo: "missing",
		}))
		err := c.Attach(&Control{Kind: "half", Value: "1"})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("controls attached after registration work", func(t *testing.T) {
		require.NoError(t, c.Handle("late", Binding{URL: LiteralURL(), Method: MethodAttr()}))
		ctl := &Control{Kind: "late", URL: "/t/1/pin", Method: "POST"}
		assert.NoError(t, c.Attach(ctl))
	})
}

func TestClick_DisablesBeforeRequest(t *testing.T) {
	ctl := &Control{Kind: KindThreadAction, Value: "42", Endpoint: "pin", Method: "POST"}
	doer := &recordingDoer{status: 200, gate: make(chan struct{}), watch: ctl}
	reloader := &countingReloader{}
	c := DefaultController(doer, reloader, mustBase(t))
	require.NoError(t, c.Attach(ctl))

	p, err := c.Click(context.Background(), ctl)
	require.NoError(t, err)
	assert.True(t, ctl.Disabled(), "control must be disabled as soon as Click returns")

	// A second click while the first request is pending issues nothing
	_, err = c.Click(context.Background(), ctl)
	assert.ErrorIs(t, err, ErrDisabled)

	close(doer.gate)
	res, err := p.Wait()
	require.NoError(t, err)
	assert.True(t, res.Reloaded)

	assert.Equal(t, 1, doer.count())
	assert.Equal(t, []bool{true}, doer.disabledAtDo)
}

func TestClick_ConcurrentClicksIssueOneRequest(t *testing.T) {
	ctl := &Control{Kind: KindPostAction, URL: "/t/9/hide", Method: "POST"}
	doer := &recordingDoer{status: 200, gate: make(chan struct{})}
	c := DefaultController(doer, &countingReloader{}, mustBase(t))
	require.NoError(t, c.Attach(ctl))

	var accepted atomic.Int32
	var pending atomic.Pointer[Pending]
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Click(context.Background(), ctl)
			if err == nil {
				accepted.Add(1)
				pending.Store(p)
			} else {
				assert.ErrorIs(t, err, ErrDisabled)
			}
		}()
	}
	wg.Wait()
	close(doer.gate)

	require.Equal(t, int32(1), accepted.Load())
	_, err := pending.Load().Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, doer.count())
}

func TestClick_SuccessReloadsExactlyOnce(t *testing.T) {
	doer := &recordingDoer{status: http.StatusOK}
	reloader := &countingReloader{}
	c := DefaultController(doer, reloader, mustBase(t))

	first := &Control{Kind: KindThreadAction, Value: "1", Endpoint: "pin", Method: "POST"}
	second := &Control{Kind: KindThreadAction, Value: "2", Endpoint: "hide", Method: "POST"}
	require.NoError(t, c.Attach(first))
	require.NoError(t, c.Attach(second))

	p, err := c.Click(context.Background(), first)
	require.NoError(t, err)
	res, err := p.Wait()
	require.NoError(t, err)
	assert.True(t, res.Reloaded)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, int32(1), reloader.n.Load())
	assert.True(t, c.Unloaded())

	// The page is gone; nothing else may act
	_, err = c.Click(context.Background(), second)
	assert.ErrorIs(t, err, ErrUnloaded)
	assert.Equal(t, 1, doer.count())
	assert.Equal(t, int32(1), reloader.n.Load())
	assert.True(t, first.Disabled(), "control never returns to enabled after a reload")
}

func TestClick_AnyTwoXXIsSuccess(t *testing.T) {
	for _, status := range []int{200, 201, 204, 299} {
		doer := &recordingDoer{status: status}
		reloader := &countingReloader{}
		c := DefaultController(doer, reloader, mustBase(t))
		ctl := &Control{Kind: KindPostAction, URL: "/x", Method: "POST"}
		require.NoError(t, c.Attach(ctl))

		p, err := c.Click(context.Background(), ctl)
		require.NoError(t, err)
		_, err = p.Wait()
		require.NoError(t, err)
		assert.Equal(t, int32(1), reloader.n.Load(), "status %d", status)
	}
}

func TestClick_FailureKeepsDisabled(t *testing.T) {
	tests := []struct {
		name   string
		doer   *recordingDoer
		status int
	}{
		{"server error", &recordingDoer{status: http.StatusInternalServerError}, 500},
		{"forbidden", &recordingDoer{status: http.StatusForbidden}, 403},
		{"redirect", &recordingDoer{status: http.StatusFound}, 302},
		{"network", &recordingDoer{err: errors.New("connection reset")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reloader := &countingReloader{}
			c := DefaultController(tt.doer, reloader, mustBase(t))
			ctl := &Control{Kind: KindThreadAction, Value: "42", Endpoint: "pin", Method: "POST"}
			require.NoError(t, c.Attach(ctl))

			p, err := c.Click(context.Background(), ctl)
			require.NoError(t, err)
			_, err = p.Wait()

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, "POST", se.Method)
			assert.Equal(t, "http://forum.test/t/42/pin", se.URL)

			assert.Zero(t, reloader.n.Load(), "failure must not reload")
			assert.Equal(t, 1, tt.doer.count(), "failure must not retry")
			assert.True(t, ctl.Disabled())
			assert.False(t, c.Unloaded())

			_, err = c.Click(context.Background(), ctl)
			assert.ErrorIs(t, err, ErrDisabled)
			assert.Equal(t, 1, tt.doer.count())
		})
	}
}

func TestClick_ReenablePolicy(t *testing.T) {
	doer := &recordingDoer{status: http.StatusInternalServerError}
	reloader := &countingReloader{}

	var notified []error
	c := DefaultController(doer, reloader, mustBase(t),
		WithFailurePolicy(Reenable),
		WithNotifier(NotifyFunc(func(_ *Control, err error) { notified = append(notified, err) })),
	)
	ctl := &Control{Kind: KindPostAction, URL: "/t/1/hide", Method: "DELETE"}
	require.NoError(t, c.Attach(ctl))

	p, err := c.Click(context.Background(), ctl)
	require.NoError(t, err)
	_, err = p.Wait()
	require.Error(t, err)

	assert.False(t, ctl.Disabled())
	require.Len(t, notified, 1)
	assert.ErrorIs(t, notified[0], err)
	assert.Equal(t, 1, doer.count(), "no automatic retry")

	// The user may try again by hand
	p, err = c.Click(context.Background(), ctl)
	require.NoError(t, err)
	_, _ = p.Wait()
	assert.Equal(t, 2, doer.count())
	assert.Zero(t, reloader.n.Load())
}

func TestClick_RequestShape(t *testing.T) {
	tests := []struct {
		name       string
		ctl        *Control
		wantMethod string
		wantURL    string
	}{
		{
			name:       "thread action with endpoint",
			ctl:        &Control{Kind: KindThreadAction, Value: "42", Endpoint: "pin", Method: "POST"},
			wantMethod: "POST",
			wantURL:    "http://forum.test/t/42/pin",
		},
		{
			name:       "delete passed verbatim",
			ctl:        &Control{Kind: KindThreadAction, Value: "42", Endpoint: "hide", Method: "DELETE"},
			wantMethod: "DELETE",
			wantURL:    "http://forum.test/t/42/hide",
		},
		{
			name:       "lowercase method untouched",
			ctl:        &Control{Kind: KindPostAction, URL: "/t/3/pin", Method: "delete"},
			wantMethod: "delete",
			wantURL:    "http://forum.test/t/3/pin",
		},
		{
			name:       "get",
			ctl:        &Control{Kind: KindPostAction, URL: "/t/3", Method: "GET"},
			wantMethod: "GET",
			wantURL:    "http://forum.test/t/3",
		},
		{
			name:       "upvote",
			ctl:        &Control{Kind: KindUpvote, Value: "42"},
			wantMethod: "POST",
			wantURL:    "http://forum.test/upvote/42",
		},
		{
			name:       "remove vote",
			ctl:        &Control{Kind: KindRemoveVote, Value: "42"},
			wantMethod: "DELETE",
			wantURL:    "http://forum.test/upvote/42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &recordingDoer{status: http.StatusOK}
			c := DefaultController(doer, &countingReloader{}, mustBase(t))
			require.NoError(t, c.Attach(tt.ctl))

			p, err := c.Click(context.Background(), tt.ctl)
			require.NoError(t, err)
			_, err = p.Wait()
			require.NoError(t, err)

			req := doer.last()
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantURL, req.URL.String())
			assert.Nil(t, req.Body, "actions carry no body")
		})
	}
}

func TestClick_VoteReloadsOnce(t *testing.T) {
	for _, kind := range []string{KindUpvote, KindRemoveVote} {
		t.Run(kind, func(t *testing.T) {
			doer := &recordingDoer{status: http.StatusOK}
			reloader := &countingReloader{}
			c := DefaultController(doer, reloader, mustBase(t))

			ctl := &Control{Kind: kind, Value: "42"}
			require.NoError(t, c.Attach(ctl))

			p, err := c.Click(context.Background(), ctl)
			require.NoError(t, err)
			res, err := p.Wait()
			require.NoError(t, err)

			assert.True(t, res.Reloaded)
			assert.False(t, res.Transitioned)
			assert.Equal(t, int32(1), reloader.n.Load())
			assert.True(t, ctl.Disabled(), "a vote control never re-enables")
			assert.Equal(t, kind, ctl.CurrentKind(), "the next page decides the twin")

			_, err = c.Click(context.Background(), ctl)
			assert.ErrorIs(t, err, ErrUnloaded)
			assert.Equal(t, 1, doer.count())
			assert.Equal(t, int32(1), reloader.n.Load())
		})
	}
}

func TestClick_VoteToggleOptIn(t *testing.T) {
	reg, err := LoadBindings(strings.NewReader(`
bindings:
  - kind: thread_upvote_button
    url: upvote
    method: POST
    on_success: toggle
    toggle_to: thread_remove_vote_button
    label: upvote
  - kind: thread_remove_vote_button
    url: upvote
    method: DELETE
    on_success: toggle
    toggle_to: thread_upvote_button
    label: remove vote
`))
	require.NoError(t, err)

	doer := &recordingDoer{status: http.StatusOK}
	reloader := &countingReloader{}

	var transitions []string
	c := NewController(doer, reloader, mustBase(t),
		OnTransition(func(_ *Control, from, to string) { transitions = append(transitions, from+">"+to) }),
	)
	require.NoError(t, c.HandleAll(reg))

	ctl := &Control{Kind: KindUpvote, Value: "42", Label: "upvote"}
	require.NoError(t, c.Attach(ctl))

	click := func() *Result {
		t.Helper()
		p, err := c.Click(context.Background(), ctl)
		require.NoError(t, err)
		res, err := p.Wait()
		require.NoError(t, err)
		return res
	}

	res := click()
	assert.True(t, res.Transitioned)
	assert.False(t, res.Reloaded)
	assert.False(t, ctl.Disabled(), "toggle re-enables the control")
	assert.Equal(t, KindRemoveVote, ctl.CurrentKind())
	assert.Equal(t, "remove vote", ctl.CurrentLabel())
	assert.Equal(t, KindUpvote, ctl.Kind, "configured kind is left alone")

	click()
	assert.Equal(t, KindUpvote, ctl.CurrentKind())
	assert.Equal(t, "upvote", ctl.CurrentLabel())

	require.Equal(t, 2, doer.count())
	doer.mu.Lock()
	assert.Equal(t, "POST", doer.requests[0].Method)
	assert.Equal(t, "DELETE", doer.requests[1].Method)
	doer.mu.Unlock()

	assert.Zero(t, reloader.n.Load())
	assert.Equal(t, []string{KindUpvote + ">" + KindRemoveVote, KindRemoveVote + ">" + KindUpvote}, transitions)
}

func TestClick_ContextCanceled(t *testing.T) {
	srvCtx, cancel := context.WithCancel(context.Background())
	cancel()

	c := DefaultController(http.DefaultClient, &countingReloader{}, mustBase(t))
	ctl := &Control{Kind: KindPostAction, URL: "/t/1/pin", Method: "POST"}
	require.NoError(t, c.Attach(ctl))

	p, err := c.Click(srvCtx, ctl)
	require.NoError(t, err)
	_, err = p.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, ctl.Disabled())
}
