package relay

import "github.com/vovakirdan/roomchat/internal/proto"

// Client is one connection as seen by the hub.
type Client struct {
	ID     string
	Events chan proto.Frame

	// owned by the hub goroutine
	room string
	name string
}

// NewClient constructs a client with an initialized event queue.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan proto.Frame, 32),
	}
}
