package relay

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/roomchat/internal/proto"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func mustFrame(t *testing.T, ch <-chan proto.Frame, event string) proto.Frame {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				t.Fatalf("event queue closed while waiting for %s", event)
			}
			if f.Event == event {
				return f
			}
		case <-deadline:
			t.Fatalf("expected event %s not received", event)
			return proto.Frame{}
		}
	}
}

func expectNoFrame(t *testing.T, ch <-chan proto.Frame, event string) {
	t.Helper()

	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case f := <-ch:
			if f.Event == event {
				t.Fatalf("unexpected %s event: %+v", event, f)
			}
		case <-deadline:
			return
		}
	}
}

func argString(t *testing.T, f proto.Frame, i int) string {
	t.Helper()
	s, err := proto.Args(f.Args).String(i)
	if err != nil {
		t.Fatalf("arg %d of %s: %v", i, f.Event, err)
	}
	return s
}

func submit(t *testing.T, hub *Hub, c *Client, cmd *Command) {
	t.Helper()
	if err := hub.Submit(context.Background(), c, cmd); err != nil {
		t.Fatalf("submit %s: %v", cmd.Kind, err)
	}
}

func joined(t *testing.T, hub *Hub, id, room string) *Client {
	t.Helper()
	c := NewClient(id)
	hub.RegisterClient(c)
	submit(t, hub, c, &Command{Kind: CommandJoinRoom, Room: room, Name: id, Email: id + "@x.com"})
	mustFrame(t, c.Events, proto.EventJoinedRoom)
	return c
}
