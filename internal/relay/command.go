package relay

import "github.com/vovakirdan/roomchat/internal/proto"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room, leaving any previous one.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the client.
	CommandLeaveRoom
	// CommandSendMessage relays a chat message to the room.
	CommandSendMessage
	// CommandTyping relays a typing pulse to the other members.
	CommandTyping
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	case CommandSendMessage:
		return "send"
	case CommandTyping:
		return "typing"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	Name    string
	Email   string
	UserID  string
	Message proto.Message
}
