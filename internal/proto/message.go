package proto

import (
	"encoding/json"
	"fmt"
)

// Event names exchanged over the session channel. Direction is from the
// client's point of view.
const (
	// Outbound.
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"

	// Inbound.
	EventJoinedRoom       = "joinedRoom"
	EventNewMessage       = "newMessage"
	EventMessageSent      = "messageSent"
	EventMessageDelivered = "messageDelivered"
	EventMessageRead      = "messageRead"
	EventUserTyping       = "userTyping"
	EventError            = "error"
)

// Frame is the envelope for every event on the wire, in both directions.
type Frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// NewFrame marshals args positionally into a frame.
func NewFrame(event string, args ...any) (Frame, error) {
	frame := Frame{Event: event}
	if len(args) == 0 {
		return frame, nil
	}
	frame.Args = make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return Frame{}, fmt.Errorf("marshal arg %d: %w", i, err)
		}
		frame.Args = append(frame.Args, raw)
	}
	return frame, nil
}

// Args are the positional arguments of a received frame.
type Args []json.RawMessage

// Handler consumes the arguments of one received event.
type Handler func(args Args)

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Decode unmarshals argument i into v.
func (a Args) Decode(i int, v any) error {
	if i < 0 || i >= len(a) {
		return fmt.Errorf("missing argument %d (have %d)", i, len(a))
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return fmt.Errorf("decode argument %d: %w", i, err)
	}
	return nil
}

// String decodes argument i as a JSON string.
func (a Args) String(i int) (string, error) {
	var s string
	if err := a.Decode(i, &s); err != nil {
		return "", err
	}
	return s, nil
}

// Message is the wire form of a chat message.
// Sent mirrors DeliveryState for peers that only understand the boolean flag.
type Message struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	Text          string `json:"text"`
	Timestamp     int64  `json:"timestamp"` // unix milliseconds
	Sent          bool   `json:"sent"`
	RoomID        string `json:"roomId"`
	DeliveryState string `json:"deliveryState,omitempty"`
}
