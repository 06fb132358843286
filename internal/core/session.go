package core

import "github.com/vovakirdan/roomchat/internal/proto"

// MembershipState is the room lifecycle of a session.
type MembershipState int

const (
	NotInRoom MembershipState = iota
	AwaitingJoin
	InRoom
)

func (s MembershipState) String() string {
	switch s {
	case AwaitingJoin:
		return "awaiting_join"
	case InRoom:
		return "in_room"
	default:
		return "not_in_room"
	}
}

// Session is the state shared by the membership, message and presence
// components. Handlers read it at invocation time instead of capturing
// room or user values when they are registered.
type Session struct {
	UserID   string
	UserName string
	RoomID   string
	State    MembershipState
	Online   bool

	// FieldErrors holds the inline errors of the last join attempt.
	FieldErrors map[string]string
	// LastError is the most recent server error notice.
	LastError string

	pendingName string
	pendingRoom string
}

// NewSession creates a session for the given user id.
func NewSession(userID string) *Session {
	return &Session{UserID: userID}
}

// Bus is the part of the session channel the components use.
type Bus interface {
	On(event string, h proto.Handler)
	Off(event string)
	Emit(event string, args ...any) error
}

// Poster schedules work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

// roomScoped is state that is discarded whenever the current room changes.
type roomScoped interface {
	Reset()
}

// Snapshot is a copy of everything the view needs, taken on the loop.
type Snapshot struct {
	UserID      string
	UserName    string
	RoomID      string
	State       MembershipState
	Online      bool
	IsTyping    bool
	Messages    []Message
	FieldErrors map[string]string
	LastError   string
}
