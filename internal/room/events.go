package room

import "github.com/mAyush24/reactchess-server/internal/game"

// Event is one server-to-client message: a type tag plus a marshalable
// payload. The transport owns the envelope format.
type Event struct {
	T string
	M any
}

// Sender delivers events to individual connections. Delivery is
// best-effort and must never block; a gone or congested recipient simply
// misses the event.
type Sender interface {
	Send(connID string, ev Event)
}

// ---------- event payloads ----------

type BoardUpdate struct {
	FEN         string              `json:"fen"`
	LastMove    string              `json:"lastMove,omitempty"`
	Turn        string              `json:"turn"`
	MoveHistory []game.HistoryEntry `json:"moveHistory"`
}

type GameStart struct {
	FEN string `json:"fen"`
}

type GameOver struct {
	Reason string `json:"reason"`
	Winner string `json:"winner,omitempty"`
}

type PlayerConnected struct {
	PlayersCount int `json:"playersCount"`
}

type PlayerDisconnected struct {
	Color        string `json:"color"`
	PlayersCount int    `json:"playersCount"`
}

type RoomStatusUpdate struct {
	Status string `json:"status"`
}

type ChatMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}
