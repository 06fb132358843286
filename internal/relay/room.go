package relay

import "github.com/vovakirdan/roomchat/internal/proto"

// Room groups clients subscribed to the same room id.
type Room struct {
	ID      string
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast queues frame for every member except skip (which may be nil)
// and returns how many members received it.
func (r *Room) Broadcast(frame proto.Frame, skip *Client) int {
	n := 0
	for client := range r.clients {
		if client == skip {
			continue
		}
		if deliver(client, frame) {
			n++
		}
	}
	return n
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

func deliver(c *Client, frame proto.Frame) bool {
	select {
	case c.Events <- frame:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
