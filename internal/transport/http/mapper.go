package http

import (
	"fmt"

	"github.com/vovakirdan/roomchat/internal/proto"
	"github.com/vovakirdan/roomchat/internal/relay"
)

// badFrame is a client mistake answered with an error event; the
// connection stays open.
type badFrame struct {
	msg string
}

func (e *badFrame) Error() string {
	return e.msg
}

func frameToCommand(frame proto.Frame) (*relay.Command, error) {
	args := proto.Args(frame.Args)
	switch frame.Event {
	case proto.EventJoinRoom:
		room, err := args.String(0)
		if err != nil {
			return nil, &badFrame{msg: fmt.Sprintf("joinRoom: %v", err)}
		}
		// name and email are optional on the wire; the hub validates name.
		name, _ := args.String(1)
		email, _ := args.String(2)
		return &relay.Command{Kind: relay.CommandJoinRoom, Room: room, Name: name, Email: email}, nil
	case proto.EventLeaveRoom:
		room, _ := args.String(0)
		return &relay.Command{Kind: relay.CommandLeaveRoom, Room: room}, nil
	case proto.EventSendMessage:
		var msg proto.Message
		if err := args.Decode(0, &msg); err != nil {
			return nil, &badFrame{msg: fmt.Sprintf("sendMessage: %v", err)}
		}
		return &relay.Command{Kind: relay.CommandSendMessage, Message: msg}, nil
	case proto.EventTyping:
		userID, err := args.String(0)
		if err != nil {
			return nil, &badFrame{msg: fmt.Sprintf("typing: %v", err)}
		}
		room, err := args.String(1)
		if err != nil {
			return nil, &badFrame{msg: fmt.Sprintf("typing: %v", err)}
		}
		return &relay.Command{Kind: relay.CommandTyping, UserID: userID, Room: room}, nil
	default:
		return nil, &badFrame{msg: fmt.Sprintf("unknown event %q", frame.Event)}
	}
}

func errorFrame(msg string) proto.Frame {
	// A string argument always marshals.
	frame, _ := proto.NewFrame(proto.EventError, msg)
	return frame
}
