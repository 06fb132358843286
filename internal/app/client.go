// Package app assembles the chat client and the reference relay from their
// parts and owns their lifecycles.
package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/channel"
	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/store"
	"github.com/vovakirdan/roomchat/internal/store/memory"
	"github.com/vovakirdan/roomchat/internal/store/sqlite"
	"github.com/vovakirdan/roomchat/internal/utils"
	"github.com/vovakirdan/roomchat/internal/view"
)

const teardownTimeout = 2 * time.Second

// Client is a running chat session: identity, channel, event loop and the
// core components, plus view change notification.
type Client struct {
	store   store.IdentityStore
	loop    *channel.Loop
	channel *channel.Channel
	core    *core.Client
	log     *zerolog.Logger

	onView   func(view.View)
	lastView view.View
	rendered bool
}

// NewClient opens the identity store and wires the session. onView, if not
// nil, is called on the event loop whenever the projected view changes.
func NewClient(ctx context.Context, cfg config.Client, logger *zerolog.Logger, onView func(view.View)) (*Client, error) {
	st, err := openStore(cfg.IdentityPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	ident, created, err := store.LoadOrCreate(ctx, st, utils.NewSessionID)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if created {
		logger.Info().Str("user_id", ident.UserID).Msg("created session identity")
	} else {
		logger.Debug().Str("user_id", ident.UserID).Msg("reusing session identity")
	}

	loop := channel.NewLoop(256)
	ch := channel.New(channel.Options{
		URL:             cfg.ServerURL,
		ReconnectDelay:  cfg.ReconnectDelay,
		OutboundBuffer:  cfg.OutboundBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
	}, loop, logger)

	cc := core.NewClient(ident.UserID, ch, loop, logger, core.Options{
		TypingTimeout:  cfg.TypingTimeout,
		TypingCoalesce: cfg.TypingCoalesce,
		Clock:          clock.New(),
	})

	c := &Client{
		store:   st,
		loop:    loop,
		channel: ch,
		core:    cc,
		log:     logger,
		onView:  onView,
	}

	ch.OnStatus(func(s channel.Status) {
		cc.SetOnline(s == channel.StatusOnline)
	})
	loop.SetObserver(c.publish)
	cc.Attach()

	return c, nil
}

func openStore(path string) (store.IdentityStore, error) {
	if path == "" {
		return memory.New(), nil
	}
	return sqlite.New(path)
}

// UserID returns the persisted session identity.
func (c *Client) UserID() string {
	return c.core.Session.UserID
}

// Run connects and serves until ctx is cancelled, then tears everything
// down. A failed first dial is logged; the channel keeps retrying.
func (c *Client) Run(ctx context.Context) error {
	go c.loop.Run(context.Background())
	c.loop.Post(func() {}) // publish the initial view

	if err := c.channel.Connect(ctx); err != nil {
		c.log.Warn().Err(err).Msg("initial connect failed, retrying in background")
	}

	<-ctx.Done()

	var errs []error
	teardownCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := c.loop.Do(teardownCtx, c.core.Detach); err != nil {
		errs = append(errs, fmt.Errorf("detach: %w", err))
	}
	if err := c.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	c.loop.Stop()
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// Join requests membership of roomID.
func (c *Client) Join(ctx context.Context, name, email, roomID string) error {
	var err error
	if doErr := c.loop.Do(ctx, func() { err = c.core.Membership.RequestJoin(name, email, roomID) }); doErr != nil {
		return doErr
	}
	return err
}

// Leave leaves the current room.
func (c *Client) Leave(ctx context.Context) error {
	var err error
	if doErr := c.loop.Do(ctx, func() { err = c.core.Membership.Leave() }); doErr != nil {
		return doErr
	}
	return err
}

// Send sends text to the current room. It returns the optimistic message,
// or nil when nothing was sent.
func (c *Client) Send(ctx context.Context, text string) (*core.Message, error) {
	var (
		msg *core.Message
		err error
	)
	if doErr := c.loop.Do(ctx, func() { msg, err = c.core.Pipeline.Send(text) }); doErr != nil {
		return nil, doErr
	}
	return msg, err
}

// Typing signals a keystroke in the composer.
func (c *Client) Typing(ctx context.Context) error {
	return c.loop.Do(ctx, c.core.Presence.NotifyTyping)
}

// Snapshot copies the current session state.
func (c *Client) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var s core.Snapshot
	err := c.loop.Do(ctx, func() { s = c.core.Snapshot() })
	return s, err
}

// View projects the current session state.
func (c *Client) View(ctx context.Context) (view.View, error) {
	s, err := c.Snapshot(ctx)
	if err != nil {
		return view.View{}, err
	}
	return view.Project(s), nil
}

// publish runs on the loop after every task.
func (c *Client) publish() {
	if c.onView == nil {
		return
	}
	v := view.Project(c.core.Snapshot())
	if c.rendered && reflect.DeepEqual(v, c.lastView) {
		return
	}
	c.lastView = v
	c.rendered = true
	c.onView(v)
}
