// Package relay is the reference room relay: it routes the chat session
// events between connected clients. Rooms exist only while they have members
// and nothing is persisted.
package relay

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// ErrHubStopped is returned by Submit once Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Error texts sent back to clients.
const (
	MsgJoinRequired = "Room ID and name are required"
	MsgNotInRoom    = "Not in room"
	MsgEmptyMessage = "Message text is required"
)

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns all rooms and membership. Every mutation happens on the Run
// goroutine.
type Hub struct {
	commands   chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]*Room
	log     *zerolog.Logger
}

// NewHub creates a hub. Call Run to start processing.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		commands:   make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
		log:        logger,
	}
}

// RegisterClient adds a connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes a connection and closes its event queue.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit hands a command to the hub.
func (h *Hub) Submit(ctx context.Context, c *Client, cmd *Command) error {
	select {
	case h.commands <- envelope{client: c, cmd: cmd}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			h.leave(c)
			delete(h.clients, c)
			close(c.Events)
			h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
		case env := <-h.commands:
			if _, ok := h.clients[env.client]; !ok {
				continue
			}
			h.handle(env.client, env.cmd)
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(c, cmd)
	case CommandLeaveRoom:
		if cmd.Room == "" || strings.TrimSpace(cmd.Room) == c.room {
			h.leave(c)
		}
	case CommandSendMessage:
		h.send(c, cmd.Message)
	case CommandTyping:
		h.typing(c, cmd)
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) join(c *Client, cmd *Command) {
	roomID := strings.TrimSpace(cmd.Room)
	name := strings.TrimSpace(cmd.Name)
	if roomID == "" || name == "" {
		h.reply(c, proto.EventError, MsgJoinRequired)
		return
	}

	if c.room != roomID {
		h.leave(c)
		room, ok := h.rooms[roomID]
		if !ok {
			room = NewRoom(roomID)
			h.rooms[roomID] = room
		}
		room.AddClient(c)
		c.room = roomID
	}
	c.name = name

	h.log.Info().Str("client_id", c.ID).Str("room_id", roomID).Str("user_name", name).Msg("joined room")
	h.reply(c, proto.EventJoinedRoom, roomID)
}

func (h *Hub) leave(c *Client) {
	if c.room == "" {
		return
	}
	if room, ok := h.rooms[c.room]; ok {
		room.RemoveClient(c)
		if room.Empty() {
			delete(h.rooms, c.room)
		}
	}
	h.log.Info().Str("client_id", c.ID).Str("room_id", c.room).Msg("left room")
	c.room = ""
}

func (h *Hub) send(c *Client, msg proto.Message) {
	room, ok := h.rooms[msg.RoomID]
	if !ok || c.room != msg.RoomID {
		h.reply(c, proto.EventError, MsgNotInRoom)
		return
	}
	if strings.TrimSpace(msg.Text) == "" || msg.ID == "" {
		h.reply(c, proto.EventError, MsgEmptyMessage)
		return
	}

	msg.Sent = true
	msg.DeliveryState = "sent"
	h.reply(c, proto.EventMessageSent, msg.ID)

	frame, err := proto.NewFrame(proto.EventNewMessage, msg)
	if err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("encode message")
		return
	}
	deliver(c, frame)
	if n := room.Broadcast(frame, c); n > 0 {
		h.reply(c, proto.EventMessageDelivered, msg.ID)
	}
	h.log.Debug().Str("room_id", msg.RoomID).Str("message_id", msg.ID).Msg("message relayed")
}

func (h *Hub) typing(c *Client, cmd *Command) {
	room, ok := h.rooms[cmd.Room]
	if !ok || c.room != cmd.Room {
		return
	}
	frame, err := proto.NewFrame(proto.EventUserTyping, cmd.UserID, cmd.Room)
	if err != nil {
		return
	}
	room.Broadcast(frame, c)
}

func (h *Hub) reply(c *Client, event string, args ...any) {
	frame, err := proto.NewFrame(event, args...)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode reply")
		return
	}
	if !deliver(c, frame) {
		h.log.Warn().Str("client_id", c.ID).Str("event", event).Msg("dropping reply for slow consumer")
	}
}
