package core

import (
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// Presence emits local typing pulses and decays remote ones.
type Presence struct {
	sess     *Session
	bus      Bus
	log      *zerolog.Logger
	clock    clock.Clock
	loop     Poster
	timeout  time.Duration
	coalesce time.Duration

	lastPulse time.Time
	parties   map[string]*decay
	seq       uint64
}

// decay is the single pending expiry of one remote party. gen guards
// against an expiry that fired and was queued before a refresh replaced it.
type decay struct {
	timer *clock.Timer
	gen   uint64
}

// NewPresence builds the signaler. A zero coalesce window emits on every call.
func NewPresence(sess *Session, bus Bus, logger *zerolog.Logger, clk clock.Clock, loop Poster, timeout, coalesce time.Duration) *Presence {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Presence{
		sess:     sess,
		bus:      bus,
		log:      logger,
		clock:    clk,
		loop:     loop,
		timeout:  timeout,
		coalesce: coalesce,
		parties:  make(map[string]*decay),
	}
}

// Attach registers the inbound handler.
func (p *Presence) Attach() {
	p.bus.On(proto.EventUserTyping, p.onUserTyping)
}

// Detach removes the handler registered by Attach.
func (p *Presence) Detach() {
	p.bus.Off(proto.EventUserTyping)
}

// NotifyTyping emits a typing pulse for the current room.
func (p *Presence) NotifyTyping() {
	if p.sess.State != InRoom {
		return
	}
	now := p.clock.Now()
	if p.coalesce > 0 && !p.lastPulse.IsZero() && now.Sub(p.lastPulse) < p.coalesce {
		return
	}
	if err := p.bus.Emit(proto.EventTyping, p.sess.UserID, p.sess.RoomID); err != nil {
		p.log.Debug().Err(err).Msg("typing pulse dropped")
		return
	}
	p.lastPulse = now
}

// IsTyping reports whether any remote party is currently typing.
func (p *Presence) IsTyping() bool {
	return len(p.parties) > 0
}

// Typists returns the sorted ids of remote parties currently typing.
func (p *Presence) Typists() []string {
	out := make([]string, 0, len(p.parties))
	for id := range p.parties {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset cancels every pending decay.
func (p *Presence) Reset() {
	for id, d := range p.parties {
		d.timer.Stop()
		delete(p.parties, id)
	}
	p.lastPulse = time.Time{}
}

func (p *Presence) onUserTyping(args proto.Args) {
	userID, err := args.String(0)
	if err != nil {
		p.log.Warn().Err(err).Msg("malformed userTyping")
		return
	}
	roomID, err := args.String(1)
	if err != nil {
		p.log.Warn().Err(err).Msg("malformed userTyping")
		return
	}
	if userID == p.sess.UserID || p.sess.State != InRoom || roomID != p.sess.RoomID {
		return
	}
	p.pulse(userID)
}

// pulse (re)starts the countdown of one party, replacing any pending one.
func (p *Presence) pulse(userID string) {
	d, ok := p.parties[userID]
	if !ok {
		d = &decay{}
		p.parties[userID] = d
	} else {
		d.timer.Stop()
	}
	p.seq++
	d.gen = p.seq
	gen := d.gen
	d.timer = p.clock.AfterFunc(p.timeout, func() {
		p.loop.Post(func() { p.expire(userID, gen) })
	})
}

func (p *Presence) expire(userID string, gen uint64) {
	d, ok := p.parties[userID]
	if !ok || d.gen != gen {
		return
	}
	delete(p.parties, userID)
}
