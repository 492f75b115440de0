package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/mAyush24/reactchess-server/internal/game"
	"github.com/mAyush24/reactchess-server/internal/room"
)

// ---------- message envelope ----------

// Msg is the inbound envelope: a type tag plus a loose payload map.
type Msg struct {
	T string         `json:"t"`
	M map[string]any `json:"m,omitempty"`
}

// outMsg carries typed payloads back out under the same envelope.
type outMsg struct {
	T string `json:"t"`
	M any    `json:"m,omitempty"`
}

// ---------- hub ----------

// Hub accepts websocket connections and bridges them to the room
// registry: inbound events dispatch to registry operations, outbound
// room events are delivered through the Sender interface.
type Hub struct {
	allowOrigins map[string]bool

	mu      sync.RWMutex
	clients map[string]*Client

	registry *room.Registry
	log      *zap.SugaredLogger
}

func NewHub(allow []string, logger *zap.Logger) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	h := &Hub{
		allowOrigins: m,
		clients:      map[string]*Client{},
		log:          logger.Sugar(),
	}
	h.registry = room.NewRegistry(h, logger)
	return h
}

// Registry exposes the room registry for the HTTP listing endpoint.
func (h *Hub) Registry() *room.Registry {
	return h.registry
}

// Send implements room.Sender. A connection that is gone or congested
// simply misses the event. The enqueue happens under the read lock so it
// can never race the disconnect path closing the client's queue;
// enqueueing is non-blocking, so holding the lock is safe.
func (h *Hub) Send(connID string, ev room.Event) {
	b, err := json.Marshal(outMsg{T: ev.T, M: ev.M})
	if err != nil {
		return
	}
	h.mu.RLock()
	if c := h.clients[connID]; c != nil {
		c.enqueue(b)
	}
	h.mu.RUnlock()
}

// ---------- websockets ----------

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	client := newClient()

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.log.Infow("client connected", "conn", client.id)

	// writer
	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = conn.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				_ = conn.Write(r.Context(), websocket.MessageText, msg)
			case <-ping.C:
				_ = conn.Ping(r.Context())
			}
		}
	}()

	// reader
	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			break
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		h.dispatch(client, m)
	}

	// disconnect
	h.mu.Lock()
	delete(h.clients, client.id)
	close(client.send)
	h.mu.Unlock()

	h.registry.Disconnect(client.id)
	h.log.Infow("client disconnected", "conn", client.id)
}

func (h *Hub) dispatch(client *Client, m Msg) {
	switch m.T {

	case "createRoom":
		name := strField(m.M, "name")
		roomID := h.registry.Create(client.id, name)
		client.reply("roomCreated", map[string]any{"roomId": roomID, "color": string(room.RoleWhite)})

	case "joinRoom":
		roomID := strField(m.M, "roomId")
		name := strField(m.M, "name")
		res, err := h.registry.Join(roomID, client.id, name)
		if err != nil {
			client.reply("joinError", map[string]any{"error": err.Error()})
			break
		}
		reply := map[string]any{"color": string(res.Role)}
		if res.Role == room.RoleSpectator {
			reply["status"] = string(res.Status)
			reply["gameOver"] = res.GameOver
		}
		client.reply("roomJoined", reply)

	case "makeMove":
		// fire-and-forget: rejected moves are dropped without a reply
		h.registry.SubmitMove(strField(m.M, "roomId"), client.id, strField(m.M, "move"))

	case "getBoardState":
		if state, ok := h.registry.BoardState(strField(m.M, "roomId")); ok {
			client.reply("boardState", state)
		}

	case "forfeitGame":
		color := game.Color(strField(m.M, "color"))
		if color != game.White && color != game.Black {
			break
		}
		h.registry.Forfeit(strField(m.M, "roomId"), client.id, color)

	case "sendMessage":
		roomID := strField(m.M, "roomId")
		if roomID == "" {
			break
		}
		h.registry.Broadcast(roomID, room.Event{T: "receiveMessage", M: room.ChatMessage{
			Message: strField(m.M, "message"),
			Sender:  strField(m.M, "sender"),
		}})
	}
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
