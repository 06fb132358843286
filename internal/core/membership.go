package core

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// Membership owns the join/leave state transitions of the session.
//
//	NotInRoom --RequestJoin--> AwaitingJoin --joinedRoom--> InRoom --Leave--> NotInRoom
//
// Join waits for the server's confirmation because the server may normalize
// the room id. Leave is applied locally at once.
type Membership struct {
	sess   *Session
	bus    Bus
	log    *zerolog.Logger
	scoped []roomScoped
}

// NewMembership builds the manager. scoped state is reset on every room change.
func NewMembership(sess *Session, bus Bus, logger *zerolog.Logger, scoped ...roomScoped) *Membership {
	return &Membership{sess: sess, bus: bus, log: logger, scoped: scoped}
}

// Attach registers the inbound handlers.
func (m *Membership) Attach() {
	m.bus.On(proto.EventJoinedRoom, m.onJoinedRoom)
	m.bus.On(proto.EventError, m.onError)
}

// Detach removes the handlers registered by Attach.
func (m *Membership) Detach() {
	m.bus.Off(proto.EventJoinedRoom)
	m.bus.Off(proto.EventError)
}

// RequestJoin validates the form and, if valid, asks the server to join.
// Invalid input never reaches the network.
func (m *Membership) RequestJoin(name, email, roomID string) error {
	switch m.sess.State {
	case InRoom:
		return ErrAlreadyJoined
	case AwaitingJoin:
		return ErrJoinPending
	}

	if err := ValidateJoin(name, email, roomID); err != nil {
		if verrs, ok := err.(ValidationErrors); ok {
			m.sess.FieldErrors = verrs.Fields()
		}
		return err
	}
	m.sess.FieldErrors = nil
	m.sess.LastError = ""

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	roomID = strings.TrimSpace(roomID)

	m.log.Info().Str("room_id", roomID).Msg("attempting to join room")
	if err := m.bus.Emit(proto.EventJoinRoom, roomID, name, email); err != nil {
		return &TransportError{Op: "emit " + proto.EventJoinRoom, Err: err}
	}

	m.sess.State = AwaitingJoin
	m.sess.pendingName = name
	m.sess.pendingRoom = roomID
	return nil
}

// Leave departs the current room without waiting for the server.
func (m *Membership) Leave() error {
	if m.sess.State != InRoom {
		return ErrNotInRoom
	}

	roomID := m.sess.RoomID
	if err := m.bus.Emit(proto.EventLeaveRoom, roomID); err != nil {
		m.log.Warn().Err(err).Str("room_id", roomID).Msg("leave notice not sent")
	}

	m.sess.State = NotInRoom
	m.sess.RoomID = ""
	m.reset()
	m.log.Info().Str("room_id", roomID).Msg("left room")
	return nil
}

func (m *Membership) onJoinedRoom(args proto.Args) {
	roomID, err := args.String(0)
	if err != nil {
		m.log.Warn().Err(err).Msg("malformed joinedRoom")
		return
	}
	if m.sess.State != AwaitingJoin {
		m.log.Debug().Str("room_id", roomID).Str("state", m.sess.State.String()).Msg("unexpected joinedRoom ignored")
		return
	}

	m.sess.State = InRoom
	m.sess.RoomID = roomID
	m.sess.UserName = m.sess.pendingName
	m.sess.pendingName = ""
	m.sess.pendingRoom = ""
	m.reset()
	m.log.Info().Str("room_id", roomID).Str("user_id", m.sess.UserID).Msg("joined room")
}

func (m *Membership) onError(args proto.Args) {
	msg, err := args.String(0)
	if err != nil {
		msg = "unknown error"
		if args.Len() > 0 {
			msg = string(args[0])
		}
	}
	perr := &ProtocolError{Message: msg}
	m.sess.LastError = msg

	if m.sess.State == AwaitingJoin {
		m.log.Warn().Err(perr).Str("room_id", m.sess.pendingRoom).Msg("join rejected")
		m.sess.State = NotInRoom
		m.sess.pendingName = ""
		m.sess.pendingRoom = ""
		return
	}
	m.log.Warn().Err(perr).Msg("socket error")
}

// onStatus tracks transport state. Membership is left untouched: the
// server forgets it on disconnect and the user re-joins explicitly.
func (m *Membership) onStatus(online bool) {
	m.sess.Online = online
}

func (m *Membership) reset() {
	for _, s := range m.scoped {
		s.Reset()
	}
}
