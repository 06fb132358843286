package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/roomchat/internal/proto"
	"github.com/vovakirdan/roomchat/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:9000/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name to join with")
	room := flag.String("room", "general", "room id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(event string, args ...any) error {
		frame, err := proto.NewFrame(event, args...)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event, err)
		}
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			return fmt.Errorf("send %s: %w", event, err)
		}
		return nil
	}

	userID := utils.NewSessionID()
	if err := send(proto.EventJoinRoom, *room, *user, *user+"@example.com"); err != nil {
		return err
	}

	msg := proto.Message{
		ID:            utils.NewMessageID(),
		UserID:        userID,
		UserName:      *user,
		Text:          *text,
		Timestamp:     time.Now().UnixMilli(),
		RoomID:        *room,
		DeliveryState: "pending",
	}

	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		args := proto.Args(frame.Args)
		fmt.Printf("Received event=%s args=%d\n", frame.Event, args.Len())

		switch frame.Event {
		case proto.EventJoinedRoom:
			joined, _ := args.String(0)
			fmt.Printf("Joined: room=%s\n", joined)
			if err := send(proto.EventSendMessage, msg); err != nil {
				return err
			}
		case proto.EventMessageSent:
			id, _ := args.String(0)
			if id == msg.ID {
				fmt.Printf("Acknowledged: id=%s\n", id)
				return nil
			}
		case proto.EventError:
			reason, _ := args.String(0)
			return fmt.Errorf("server error: %s", reason)
		default:
			// keep looping for the ack
		}
	}
}
