package room

import (
	"sync"

	"github.com/mAyush24/reactchess-server/internal/game"
)

// Role is a connection's relationship to a room.
type Role string

const (
	RoleWhite     Role = "white"
	RoleBlack     Role = "black"
	RoleSpectator Role = "spectator"
)

// Status is the lifecycle state of a room. Ended is terminal.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

type slot struct {
	connID string
	name   string
}

func (s slot) empty() bool { return s.connID == "" }

// Room is one match: two player slots, a spectator set, the position and
// its append-only history. All fields are guarded by mu; every operation
// touching a room serializes on it.
type Room struct {
	mu sync.Mutex

	id         string
	white      slot
	black      slot
	spectators map[string]struct{}

	oracle   game.Oracle
	lastMove string
	history  []game.HistoryEntry

	status         Status
	terminalReason string
	hidden         bool

	// set when the room has been removed from the registry; a stale
	// pointer must behave as if the room no longer exists
	deleted bool
}

func (r *Room) playersCount() int {
	n := 0
	if !r.white.empty() {
		n++
	}
	if !r.black.empty() {
		n++
	}
	return n
}

// occupies reports which role slot, if any, connID holds.
func (r *Room) occupies(connID string) (game.Color, bool) {
	if r.white.connID == connID && connID != "" {
		return game.White, true
	}
	if r.black.connID == connID && connID != "" {
		return game.Black, true
	}
	return "", false
}

func (r *Room) isMember(connID string) bool {
	if _, ok := r.occupies(connID); ok {
		return true
	}
	_, ok := r.spectators[connID]
	return ok
}

// empty reports whether no connection at all remains in the room.
func (r *Room) empty() bool {
	return r.white.empty() && r.black.empty() && len(r.spectators) == 0
}

// broadcast fans an event out to both players and all spectators.
// Sends are non-blocking, so calling under r.mu is fine.
func (r *Room) broadcast(s Sender, ev Event) {
	if !r.white.empty() {
		s.Send(r.white.connID, ev)
	}
	if !r.black.empty() {
		s.Send(r.black.connID, ev)
	}
	for id := range r.spectators {
		s.Send(id, ev)
	}
}

// boardUpdate snapshots the current position for broadcast or for a
// joining spectator. Caller holds r.mu.
func (r *Room) boardUpdate() BoardUpdate {
	history := make([]game.HistoryEntry, len(r.history))
	copy(history, r.history)
	return BoardUpdate{
		FEN:         r.oracle.FEN(),
		LastMove:    r.lastMove,
		Turn:        r.oracle.Turn().Short(),
		MoveHistory: history,
	}
}

// end flips the room to its terminal state. The first reason wins;
// subsequent calls are ignored. Caller holds r.mu.
func (r *Room) end(reason string) bool {
	if r.status == StatusEnded {
		return false
	}
	r.status = StatusEnded
	r.terminalReason = reason
	return true
}
