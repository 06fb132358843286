package core

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/roomchat/internal/proto"
)

func TestNotifyTypingEmitsPulse(t *testing.T) {
	env := newTestEnv(t)

	env.client.Presence.NotifyTyping()
	if n := env.bus.count(proto.EventTyping); n != 0 {
		t.Fatalf("typing emitted outside room")
	}

	env.join(t, "r1")
	env.client.Presence.NotifyTyping()
	env.client.Presence.NotifyTyping()

	if n := env.bus.count(proto.EventTyping); n != 2 {
		t.Fatalf("expected a pulse per call, got %d", n)
	}
	ev := env.bus.last(t, proto.EventTyping)
	if ev.Args[0] != "me" || ev.Args[1] != "r1" {
		t.Fatalf("unexpected typing args: %v", ev.Args)
	}
}

func TestNotifyTypingCoalesces(t *testing.T) {
	bus := newFakeBus()
	clk := clock.NewMock()
	client := NewClient("me", bus, newQueuePoster(), nil, Options{
		Clock:          clk,
		TypingCoalesce: 300 * time.Millisecond,
	})
	client.Attach()
	_ = client.Membership.RequestJoin("Ann", "ann@x.com", "r1")
	bus.deliver(t, proto.EventJoinedRoom, "r1")

	client.Presence.NotifyTyping()
	clk.Add(100 * time.Millisecond)
	client.Presence.NotifyTyping()
	clk.Add(250 * time.Millisecond)
	client.Presence.NotifyTyping()

	if n := bus.count(proto.EventTyping); n != 2 {
		t.Fatalf("expected 2 pulses after coalescing, got %d", n)
	}
}

func TestRemoteTypingDecays(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "r1")

	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	if !env.client.Presence.IsTyping() {
		t.Fatal("expected typing after remote pulse")
	}

	env.clock.Add(2999 * time.Millisecond)
	env.loop.expectIdle(t)
	if !env.client.Presence.IsTyping() {
		t.Fatal("typing cleared before timeout")
	}

	env.clock.Add(time.Millisecond)
	env.loop.runNext(t)
	if env.client.Presence.IsTyping() {
		t.Fatal("typing not cleared after timeout")
	}
}

func TestRemoteTypingRefreshExtendsInsteadOfStacking(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "r1")

	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	env.clock.Add(2 * time.Second)
	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")

	// The first countdown would have fired at 3s.
	env.clock.Add(2 * time.Second)
	env.loop.expectIdle(t)
	if !env.client.Presence.IsTyping() {
		t.Fatal("refreshing pulse did not extend the indicator")
	}

	env.clock.Add(time.Second)
	env.loop.runNext(t)
	if env.client.Presence.IsTyping() {
		t.Fatal("typing not cleared 3s after the last pulse")
	}
	env.loop.expectIdle(t)
}

func TestStaleExpiryIsDiscarded(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "r1")

	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	env.clock.Add(3 * time.Second)
	stale := env.loop.next(t)

	// A pulse handled before the queued expiry runs wins.
	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	stale()

	if !env.client.Presence.IsTyping() {
		t.Fatal("stale expiry cleared a refreshed indicator")
	}
}

func TestRemoteTypingPartiesDecayIndependently(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "r1")

	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	env.clock.Add(2 * time.Second)
	env.bus.deliver(t, proto.EventUserTyping, "cat", "r1")

	env.clock.Add(time.Second)
	env.loop.runNext(t)
	if got := env.client.Presence.Typists(); len(got) != 1 || got[0] != "cat" {
		t.Fatalf("typists = %v, want [cat]", got)
	}

	env.clock.Add(2 * time.Second)
	env.loop.runNext(t)
	if env.client.Presence.IsTyping() {
		t.Fatal("typing should be clear")
	}
}

func TestRemoteTypingFilters(t *testing.T) {
	env := newTestEnv(t)

	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")
	if env.client.Presence.IsTyping() {
		t.Fatal("typing accepted outside room")
	}

	env.join(t, "r1")
	env.bus.deliver(t, proto.EventUserTyping, "me", "r1")
	env.bus.deliver(t, proto.EventUserTyping, "bob", "r2")
	env.bus.deliver(t, proto.EventUserTyping, "bob")

	if env.client.Presence.IsTyping() {
		t.Fatal("own, foreign-room or malformed pulse set typing")
	}
}

func TestLeaveClearsTyping(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "r1")
	env.bus.deliver(t, proto.EventUserTyping, "bob", "r1")

	if err := env.client.Membership.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if env.client.Presence.IsTyping() {
		t.Fatal("typing survived leave")
	}

	env.clock.Add(5 * time.Second)
	env.loop.expectIdle(t)
}
