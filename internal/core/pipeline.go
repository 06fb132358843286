package core

import (
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// Pipeline keeps the timeline of the current room. Local sends are appended
// optimistically as pending and reconciled by id when the server
// acknowledges them. Remote messages are appended in arrival order; the
// timeline is never re-sorted by timestamp.
type Pipeline struct {
	sess  *Session
	bus   Bus
	log   *zerolog.Logger
	clock clock.Clock
	newID func() string

	timeline []Message
	index    map[string]int
}

// NewPipeline builds the message pipeline.
func NewPipeline(sess *Session, bus Bus, logger *zerolog.Logger, clk clock.Clock, newID func() string) *Pipeline {
	return &Pipeline{
		sess:  sess,
		bus:   bus,
		log:   logger,
		clock: clk,
		newID: newID,
		index: make(map[string]int),
	}
}

// Attach registers the inbound handlers.
func (p *Pipeline) Attach() {
	p.bus.On(proto.EventNewMessage, p.onNewMessage)
	p.bus.On(proto.EventMessageSent, p.onAdvance(Sent))
	p.bus.On(proto.EventMessageDelivered, p.onAdvance(Delivered))
	p.bus.On(proto.EventMessageRead, p.onAdvance(Read))
}

// Detach removes the handlers registered by Attach.
func (p *Pipeline) Detach() {
	p.bus.Off(proto.EventNewMessage)
	p.bus.Off(proto.EventMessageSent)
	p.bus.Off(proto.EventMessageDelivered)
	p.bus.Off(proto.EventMessageRead)
}

// Send appends a pending message and publishes it. Blank text or a session
// outside a room is a no-op returning (nil, nil). On an emit failure the
// message stays in the timeline as pending and the error is returned.
func (p *Pipeline) Send(text string) (*Message, error) {
	if strings.TrimSpace(text) == "" || p.sess.State != InRoom {
		return nil, nil
	}

	msg := Message{
		ID:            p.newID(),
		UserID:        p.sess.UserID,
		UserName:      p.sess.UserName,
		Text:          text,
		Timestamp:     p.clock.Now(),
		RoomID:        p.sess.RoomID,
		DeliveryState: Pending,
	}
	p.append(msg)

	if err := p.bus.Emit(proto.EventSendMessage, msg.Wire()); err != nil {
		p.log.Warn().Err(err).Str("message_id", msg.ID).Msg("send not emitted")
		return &msg, &TransportError{Op: "emit " + proto.EventSendMessage, Err: err}
	}
	return &msg, nil
}

// Advance moves message id forward to state. It reports whether the
// message changed; unknown ids and backward moves are ignored.
func (p *Pipeline) Advance(id string, state DeliveryState) bool {
	i, ok := p.index[id]
	if !ok {
		return false
	}
	if p.timeline[i].DeliveryState >= state {
		return false
	}
	p.timeline[i].DeliveryState = state
	return true
}

// Timeline returns a copy of the messages in display order.
func (p *Pipeline) Timeline() []Message {
	out := make([]Message, len(p.timeline))
	copy(out, p.timeline)
	return out
}

// Len returns the number of messages in the timeline.
func (p *Pipeline) Len() int {
	return len(p.timeline)
}

// Reset discards the timeline.
func (p *Pipeline) Reset() {
	p.timeline = nil
	p.index = make(map[string]int)
}

func (p *Pipeline) onNewMessage(args proto.Args) {
	var wire proto.Message
	if err := args.Decode(0, &wire); err != nil {
		p.log.Warn().Err(err).Msg("malformed newMessage")
		return
	}

	// Own messages are already in the timeline from Send.
	if wire.UserID == p.sess.UserID {
		return
	}
	if p.sess.State != InRoom || wire.RoomID != p.sess.RoomID {
		return
	}
	if _, dup := p.index[wire.ID]; dup && wire.ID != "" {
		p.log.Debug().Str("message_id", wire.ID).Msg("duplicate message dropped")
		return
	}
	p.append(MessageFromWire(wire))
}

func (p *Pipeline) onAdvance(state DeliveryState) proto.Handler {
	return func(args proto.Args) {
		id, err := args.String(0)
		if err != nil {
			p.log.Warn().Err(err).Str("state", state.String()).Msg("malformed acknowledgment")
			return
		}
		if p.Advance(id, state) {
			p.log.Debug().Str("message_id", id).Str("state", state.String()).Msg("message advanced")
		}
	}
}

func (p *Pipeline) append(msg Message) {
	if msg.ID != "" {
		p.index[msg.ID] = len(p.timeline)
	}
	p.timeline = append(p.timeline, msg)
}
