package core

import (
	"time"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// DeliveryState is the lifecycle stage of a message from the sender's view.
// States are ordered; a message only ever moves forward.
type DeliveryState int

const (
	Pending DeliveryState = iota
	Sent
	Delivered
	Read
)

func (s DeliveryState) String() string {
	switch s {
	case Sent:
		return "sent"
	case Delivered:
		return "delivered"
	case Read:
		return "read"
	default:
		return "pending"
	}
}

// ParseDeliveryState maps the wire name back to a state. Unknown names are pending.
func ParseDeliveryState(s string) DeliveryState {
	switch s {
	case "sent":
		return Sent
	case "delivered":
		return Delivered
	case "read":
		return Read
	default:
		return Pending
	}
}

// Message is the domain model for a chat message in the local timeline.
type Message struct {
	ID            string
	UserID        string
	UserName      string
	Text          string
	Timestamp     time.Time
	RoomID        string
	DeliveryState DeliveryState
}

// Wire converts the message to its wire form.
func (m Message) Wire() proto.Message {
	return proto.Message{
		ID:            m.ID,
		UserID:        m.UserID,
		UserName:      m.UserName,
		Text:          m.Text,
		Timestamp:     m.Timestamp.UnixMilli(),
		Sent:          m.DeliveryState >= Sent,
		RoomID:        m.RoomID,
		DeliveryState: m.DeliveryState.String(),
	}
}

// MessageFromWire converts a received wire message.
func MessageFromWire(w proto.Message) Message {
	state := ParseDeliveryState(w.DeliveryState)
	if w.Sent && state < Sent {
		state = Sent
	}
	return Message{
		ID:            w.ID,
		UserID:        w.UserID,
		UserName:      w.UserName,
		Text:          w.Text,
		Timestamp:     time.UnixMilli(w.Timestamp),
		RoomID:        w.RoomID,
		DeliveryState: state,
	}
}
