package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client is one websocket connection's identity and outbound queue. The
// queue is drained by a dedicated writer goroutine; enqueueing never
// blocks.
type Client struct {
	id   string
	send chan []byte
}

func newClient() *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, 64),
	}
}

// enqueue drops the message if the client's queue is full.
func (c *Client) enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) reply(t string, payload any) {
	b, err := json.Marshal(outMsg{T: t, M: payload})
	if err != nil {
		return
	}
	c.enqueue(b)
}
