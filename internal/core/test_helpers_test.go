package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/roomchat/internal/proto"
)

type emitted struct {
	Event string
	Args  []any
}

// fakeBus records emits and lets tests deliver inbound events synchronously.
type fakeBus struct {
	handlers map[string][]proto.Handler
	emits    []emitted
	failEmit error
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]proto.Handler)}
}

func (b *fakeBus) On(event string, h proto.Handler) {
	b.handlers[event] = append(b.handlers[event], h)
}

func (b *fakeBus) Off(event string) {
	delete(b.handlers, event)
}

func (b *fakeBus) Emit(event string, args ...any) error {
	if b.failEmit != nil {
		return b.failEmit
	}
	b.emits = append(b.emits, emitted{Event: event, Args: args})
	return nil
}

func (b *fakeBus) deliver(t *testing.T, event string, args ...any) {
	t.Helper()
	frame, err := proto.NewFrame(event, args...)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	for _, h := range b.handlers[event] {
		h(proto.Args(frame.Args))
	}
}

func (b *fakeBus) count(event string) int {
	n := 0
	for _, e := range b.emits {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (b *fakeBus) last(t *testing.T, event string) emitted {
	t.Helper()
	for i := len(b.emits) - 1; i >= 0; i-- {
		if b.emits[i].Event == event {
			return b.emits[i]
		}
	}
	t.Fatalf("no %s emitted", event)
	return emitted{}
}

// queuePoster stands in for the event loop: timer callbacks land in the
// queue and the test decides when they run.
type queuePoster struct {
	tasks chan func()
}

func newQueuePoster() *queuePoster {
	return &queuePoster{tasks: make(chan func(), 16)}
}

func (q *queuePoster) Post(fn func()) bool {
	q.tasks <- fn
	return true
}

// next waits for one posted task and returns it without running it.
func (q *queuePoster) next(t *testing.T) func() {
	t.Helper()
	select {
	case fn := <-q.tasks:
		return fn
	case <-time.After(time.Second):
		t.Fatal("expected a posted task")
		return nil
	}
}

func (q *queuePoster) runNext(t *testing.T) {
	t.Helper()
	q.next(t)()
}

func (q *queuePoster) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case <-q.tasks:
		t.Fatal("unexpected posted task")
	case <-time.After(30 * time.Millisecond):
	}
}

type testEnv struct {
	client *Client
	bus    *fakeBus
	clock  *clock.Mock
	loop   *queuePoster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bus := newFakeBus()
	clk := clock.NewMock()
	loop := newQueuePoster()
	seq := 0
	client := NewClient("me", bus, loop, nil, Options{
		TypingTimeout: 3 * time.Second,
		Clock:         clk,
		NewID: func() string {
			seq++
			return fmt.Sprintf("m%d", seq)
		},
	})
	client.Attach()
	return &testEnv{client: client, bus: bus, clock: clk, loop: loop}
}

func (e *testEnv) join(t *testing.T, room string) {
	t.Helper()
	if err := e.client.Membership.RequestJoin("Ann", "ann@x.com", room); err != nil {
		t.Fatalf("request join: %v", err)
	}
	e.bus.deliver(t, proto.EventJoinedRoom, room)
	if e.client.Session.State != InRoom {
		t.Fatalf("expected InRoom after confirmation, got %v", e.client.Session.State)
	}
}

func remoteMessage(id, user, room, text string) proto.Message {
	return proto.Message{
		ID:        id,
		UserID:    user,
		UserName:  "user-" + user,
		Text:      text,
		Timestamp: 1700000000000,
		RoomID:    room,
	}
}
