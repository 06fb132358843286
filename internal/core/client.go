package core

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/utils"
)

// Options tune a Client.
type Options struct {
	TypingTimeout  time.Duration
	TypingCoalesce time.Duration
	Clock          clock.Clock
	NewID          func() string
}

// Client is one chat participant as seen by the core layer: the session
// state plus the three components that mutate it. All methods must run on
// the event loop.
type Client struct {
	Session    *Session
	Membership *Membership
	Pipeline   *Pipeline
	Presence   *Presence
}

// NewClient wires the components around a fresh session for userID.
func NewClient(userID string, bus Bus, loop Poster, logger *zerolog.Logger, opts Options) *Client {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.NewID == nil {
		opts.NewID = utils.NewMessageID
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	sess := NewSession(userID)
	pipeline := NewPipeline(sess, bus, logger, opts.Clock, opts.NewID)
	presence := NewPresence(sess, bus, logger, opts.Clock, loop, opts.TypingTimeout, opts.TypingCoalesce)
	membership := NewMembership(sess, bus, logger, pipeline, presence)

	return &Client{
		Session:    sess,
		Membership: membership,
		Pipeline:   pipeline,
		Presence:   presence,
	}
}

// Attach registers every inbound handler.
func (c *Client) Attach() {
	c.Membership.Attach()
	c.Pipeline.Attach()
	c.Presence.Attach()
}

// Detach removes every handler and cancels pending typing decays.
func (c *Client) Detach() {
	c.Presence.Detach()
	c.Pipeline.Detach()
	c.Membership.Detach()
	c.Presence.Reset()
}

// SetOnline records transport state.
func (c *Client) SetOnline(online bool) {
	c.Membership.onStatus(online)
}

// Snapshot copies the state the view is projected from.
func (c *Client) Snapshot() Snapshot {
	var fieldErrors map[string]string
	if len(c.Session.FieldErrors) > 0 {
		fieldErrors = make(map[string]string, len(c.Session.FieldErrors))
		for k, v := range c.Session.FieldErrors {
			fieldErrors[k] = v
		}
	}
	return Snapshot{
		UserID:      c.Session.UserID,
		UserName:    c.Session.UserName,
		RoomID:      c.Session.RoomID,
		State:       c.Session.State,
		Online:      c.Session.Online,
		IsTyping:    c.Presence.IsTyping(),
		Messages:    c.Pipeline.Timeline(),
		FieldErrors: fieldErrors,
		LastError:   c.Session.LastError,
	}
}
