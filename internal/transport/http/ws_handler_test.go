package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/proto"
	"github.com/vovakirdan/roomchat/internal/relay"
)

func startTestServer(t *testing.T, cfg config.Relay) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	hub := relay.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, args ...any) {
	t.Helper()
	frame, err := proto.NewFrame(event, args...)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) proto.Args {
	t.Helper()
	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if frame.Event == event {
			return proto.Args(frame.Args)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, config.DefaultRelay())

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestWebSocketJoinAndMessage(t *testing.T) {
	ts := startTestServer(t, config.DefaultRelay())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)

	send(t, ctx, connA, proto.EventJoinRoom, "general", "alice", "alice@x.com")
	if room, _ := readUntil(t, ctx, connA, proto.EventJoinedRoom).String(0); room != "general" {
		t.Fatalf("joinedRoom = %q", room)
	}
	send(t, ctx, connB, proto.EventJoinRoom, "general", "bob", "bob@x.com")
	readUntil(t, ctx, connB, proto.EventJoinedRoom)

	msg := proto.Message{ID: "m1", UserID: "alice", UserName: "alice", Text: "hi there", RoomID: "general", Timestamp: 1700000000000}
	send(t, ctx, connA, proto.EventSendMessage, msg)

	if id, _ := readUntil(t, ctx, connA, proto.EventMessageSent).String(0); id != "m1" {
		t.Fatalf("messageSent id = %q", id)
	}

	var got proto.Message
	if err := readUntil(t, ctx, connB, proto.EventNewMessage).Decode(0, &got); err != nil {
		t.Fatalf("decode newMessage: %v", err)
	}
	if got.UserName != "alice" || got.Text != "hi there" || got.RoomID != "general" {
		t.Fatalf("unexpected message payload: %+v", got)
	}

	send(t, ctx, connB, proto.EventTyping, "bob", "general")
	args := readUntil(t, ctx, connA, proto.EventUserTyping)
	if user, _ := args.String(0); user != "bob" {
		t.Fatalf("userTyping user = %q", user)
	}
}

func TestWebSocketUnknownEventKeepsConnection(t *testing.T) {
	ts := startTestServer(t, config.DefaultRelay())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, "dance")
	if msg, _ := readUntil(t, ctx, conn, proto.EventError).String(0); !strings.Contains(msg, "dance") {
		t.Fatalf("unexpected error text %q", msg)
	}

	send(t, ctx, conn, proto.EventJoinRoom, "general", "alice", "alice@x.com")
	readUntil(t, ctx, conn, proto.EventJoinedRoom)
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := config.DefaultRelay()
	cfg.RateLimit = 2
	ts := startTestServer(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	for i := 0; i < 3; i++ {
		send(t, ctx, conn, proto.EventLeaveRoom, "general")
	}
	if msg, _ := readUntil(t, ctx, conn, proto.EventError).String(0); msg != MsgRateLimited {
		t.Fatalf("unexpected error text %q", msg)
	}
}

func TestFrameToCommand(t *testing.T) {
	frame, _ := proto.NewFrame(proto.EventJoinRoom, "r1", "Ann", "ann@x.com")
	cmd, err := frameToCommand(frame)
	if err != nil {
		t.Fatalf("map joinRoom: %v", err)
	}
	if cmd.Kind != relay.CommandJoinRoom || cmd.Room != "r1" || cmd.Name != "Ann" || cmd.Email != "ann@x.com" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	frame, _ = proto.NewFrame(proto.EventTyping, "u1")
	if _, err := frameToCommand(frame); err == nil {
		t.Fatal("typing without room should fail")
	}

	frame, _ = proto.NewFrame(proto.EventSendMessage, "text only")
	if _, err := frameToCommand(frame); err == nil {
		t.Fatal("sendMessage with a string payload should fail")
	}
}

func TestWebSocketSenderReceivesOwnEchoInOrder(t *testing.T) {
	ts := startTestServer(t, config.DefaultRelay())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)
	send(t, ctx, connA, proto.EventJoinRoom, "general", "alice", "alice@x.com")
	readUntil(t, ctx, connA, proto.EventJoinedRoom)
	send(t, ctx, connB, proto.EventJoinRoom, "general", "bob", "bob@x.com")
	readUntil(t, ctx, connB, proto.EventJoinedRoom)

	msg := proto.Message{ID: "m1", UserID: "alice", UserName: "alice", Text: "echo", RoomID: "general"}
	send(t, ctx, connA, proto.EventSendMessage, msg)

	want := []string{proto.EventMessageSent, proto.EventNewMessage, proto.EventMessageDelivered}
	for _, event := range want {
		var frame proto.Frame
		if err := wsjson.Read(ctx, connA, &frame); err != nil {
			t.Fatalf("read %s: %v", event, err)
		}
		if frame.Event != event {
			t.Fatalf("got %s, want %s", frame.Event, event)
		}
	}
}

func TestUnknownRouteFallsThroughToRouter(t *testing.T) {
	ts := startTestServer(t, config.DefaultRelay())

	resp, err := ts.Client().Get(ts.URL + "/missing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("unknown route status = %d, want 404 from the router", resp.StatusCode)
	}
}
