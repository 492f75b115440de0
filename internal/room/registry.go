package room

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mAyush24/reactchess-server/internal/game"
)

// RoomInfo is one row of the public listing.
type RoomInfo struct {
	ID             string `json:"id"`
	Status         Status `json:"status"`
	WhitePlayer    string `json:"whitePlayer"`
	BlackPlayer    string `json:"blackPlayer"`
	SpectatorCount int    `json:"spectatorCount"`
}

// JoinResult is the synchronous reply to a join request.
type JoinResult struct {
	Role     Role
	Status   Status
	GameOver bool
}

// BoardState is the full read-only snapshot returned to getBoardState.
type BoardState struct {
	FEN              string              `json:"fen"`
	LastMove         string              `json:"lastMove,omitempty"`
	Turn             string              `json:"turn"`
	PlayersConnected int                 `json:"playersConnected"`
	MoveHistory      []game.HistoryEntry `json:"moveHistory"`
	Status           Status              `json:"status"`
	GameOver         bool                `json:"gameOver"`
}

// Registry owns the set of live rooms and every operation that mutates
// them. The registry lock guards only the room map; each room serializes
// its own mutations. No path acquires the registry lock while holding a
// room lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	sender    Sender
	newOracle func() game.Oracle
	log       *zap.SugaredLogger
}

// NewRegistry returns an empty registry. Events go out through sender;
// games are ruled by fresh chess oracles.
func NewRegistry(sender Sender, logger *zap.Logger) *Registry {
	return &Registry{
		rooms:     map[string]*Room{},
		sender:    sender,
		newOracle: game.NewChess,
		log:       logger.Sugar(),
	}
}

// Create allocates a room with the initiator holding the white slot.
func (reg *Registry) Create(connID, name string) string {
	r := &Room{
		id:         newRoomID(),
		white:      slot{connID: connID, name: name},
		spectators: map[string]struct{}{},
		oracle:     reg.newOracle(),
		status:     StatusWaiting,
	}

	reg.mu.Lock()
	for {
		if _, taken := reg.rooms[r.id]; !taken {
			break
		}
		r.id = newRoomID()
	}
	reg.rooms[r.id] = r
	reg.mu.Unlock()

	reg.log.Infow("room created", "room", r.id, "name", name, "conn", connID)
	return r.id
}

// newRoomID cuts a short token out of a v4 UUID; the registry retries on
// the negligible chance of a live collision.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (reg *Registry) lookup(roomID string) *Room {
	reg.mu.RLock()
	r := reg.rooms[roomID]
	reg.mu.RUnlock()
	return r
}

// Delete removes a room from the registry. Idempotent.
func (reg *Registry) Delete(roomID string) {
	reg.mu.Lock()
	r := reg.rooms[roomID]
	delete(reg.rooms, roomID)
	reg.mu.Unlock()
	if r != nil {
		r.mu.Lock()
		r.deleted = true
		r.mu.Unlock()
		reg.log.Infow("room deleted", "room", roomID)
	}
}

// removeIfEmpty deletes the room once it holds no connections at all.
func (reg *Registry) removeIfEmpty(r *Room) {
	r.mu.Lock()
	gone := r.empty() && !r.deleted
	if gone {
		r.deleted = true
	}
	id := r.id
	r.mu.Unlock()
	if !gone {
		return
	}
	reg.mu.Lock()
	delete(reg.rooms, id)
	reg.mu.Unlock()
	reg.log.Infow("room deleted", "room", id)
}

// ListPublic snapshots every room not hidden from the listing.
func (reg *Registry) ListPublic() []RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	list := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.hidden && !r.deleted {
			list = append(list, RoomInfo{
				ID:             r.id,
				Status:         r.status,
				WhitePlayer:    r.white.name,
				BlackPlayer:    r.black.name,
				SpectatorCount: len(r.spectators),
			})
		}
		r.mu.Unlock()
	}
	return list
}

// Join assigns a role to the connection: white slot first, then black,
// then spectator. Filling the black slot starts the match. A joining
// spectator additionally receives a one-time board snapshot.
func (reg *Registry) Join(roomID, connID, name string) (JoinResult, error) {
	r := reg.lookup(roomID)
	if r == nil {
		return JoinResult{}, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return JoinResult{}, ErrRoomNotFound
	}
	// a defunct room never gets new players; spectating its history is
	// still allowed
	if r.hidden && (r.white.empty() || r.black.empty()) {
		return JoinResult{}, ErrRoomUnavailable
	}
	if r.isMember(connID) {
		return JoinResult{}, ErrAlreadyAssigned
	}

	switch {
	case r.white.empty():
		r.white = slot{connID: connID, name: name}
		reg.log.Infow("joined as white", "room", r.id, "name", name, "conn", connID)
		return JoinResult{Role: RoleWhite}, nil

	case r.black.empty():
		r.black = slot{connID: connID, name: name}
		reg.log.Infow("joined as black", "room", r.id, "name", name, "conn", connID)
		// ended is terminal: refilling a vacated slot afterwards never
		// restarts the match
		if r.status == StatusWaiting {
			r.status = StatusPlaying
			r.broadcast(reg.sender, Event{T: "gameStart", M: GameStart{FEN: r.oracle.FEN()}})
		}
		r.broadcast(reg.sender, Event{T: "playerConnected", M: PlayerConnected{PlayersCount: 2}})
		return JoinResult{Role: RoleBlack}, nil

	default:
		r.spectators[connID] = struct{}{}
		reg.log.Infow("joined as spectator", "room", r.id, "name", name, "conn", connID)
		reg.sender.Send(connID, Event{T: "boardUpdate", M: r.boardUpdate()})
		return JoinResult{Role: RoleSpectator, Status: r.status, GameOver: r.status == StatusEnded}, nil
	}
}

// SubmitMove runs the turn gate and move pipeline. A move from anyone
// but the side-to-move's slot holder, or one the oracle rejects, is
// dropped without any state change or broadcast. The returned flag
// reports acceptance; the transport ignores it (fire-and-forget).
func (reg *Registry) SubmitMove(roomID, connID, move string) bool {
	r := reg.lookup(roomID)
	if r == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted || r.status == StatusEnded {
		return false
	}

	color, ok := r.occupies(connID)
	if !ok || color != r.oracle.Turn() {
		return false
	}

	if err := r.oracle.ApplyMove(move); err != nil {
		reg.log.Debugw("move rejected", "room", r.id, "conn", connID, "move", move)
		return false
	}

	r.lastMove = move
	r.history = append(r.history, game.HistoryEntry{
		FEN:      r.oracle.FEN(),
		LastMove: move,
		Turn:     r.oracle.Turn().Short(),
	})
	r.broadcast(reg.sender, Event{T: "boardUpdate", M: r.boardUpdate()})

	if out := r.oracle.Outcome(); out.Over && r.end(out.Reason) {
		reg.log.Infow("game over", "room", r.id, "reason", out.Reason)
		r.broadcast(reg.sender, Event{T: "gameOver", M: GameOver{Reason: out.Reason}})
	}
	return true
}

// BoardState returns the current snapshot of a room, or false if the
// room does not exist.
func (reg *Registry) BoardState(roomID string) (BoardState, bool) {
	r := reg.lookup(roomID)
	if r == nil {
		return BoardState{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return BoardState{}, false
	}

	history := make([]game.HistoryEntry, len(r.history))
	copy(history, r.history)
	return BoardState{
		FEN:              r.oracle.FEN(),
		LastMove:         r.lastMove,
		Turn:             r.oracle.Turn().Short(),
		PlayersConnected: r.playersCount(),
		MoveHistory:      history,
		Status:           r.status,
		GameOver:         r.status == StatusEnded,
	}, true
}

// Forfeit is a voluntary concession. The claimed color must map to the
// requesting connection. The slot stays occupied and the room stays
// visible; only the lifecycle state flips.
func (reg *Registry) Forfeit(roomID, connID string, color game.Color) {
	r := reg.lookup(roomID)
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return
	}
	if held, ok := r.occupies(connID); !ok || held != color {
		return
	}
	if !r.end(game.ReasonForfeit) {
		return
	}

	winner := color.Other()
	reg.log.Infow("forfeit", "room", r.id, "loser", color, "winner", winner)
	r.broadcast(reg.sender, Event{T: "gameOver", M: GameOver{Reason: game.ReasonForfeit, Winner: string(winner)}})
	r.broadcast(reg.sender, Event{T: "roomStatusUpdate", M: RoomStatusUpdate{Status: string(StatusEnded)}})
}

// Disconnect reacts to a lost connection across every room it belongs
// to: a role holder forfeits any game in progress and vacates the slot,
// a spectator is silently dropped. Rooms left without players go hidden;
// rooms left without anyone are deleted.
func (reg *Registry) Disconnect(connID string) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		if r.deleted || !r.isMember(connID) {
			r.mu.Unlock()
			continue
		}

		if color, ok := r.occupies(connID); ok {
			if color == game.White {
				r.white = slot{}
			} else {
				r.black = slot{}
			}

			if r.status == StatusPlaying && r.end(game.ReasonForfeit) {
				winner := color.Other()
				reg.log.Infow("forfeit by disconnect", "room", r.id, "loser", color, "winner", winner)
				r.broadcast(reg.sender, Event{T: "gameOver", M: GameOver{Reason: game.ReasonForfeit, Winner: string(winner)}})
			}

			r.broadcast(reg.sender, Event{T: "playerDisconnected", M: PlayerDisconnected{
				Color:        string(color),
				PlayersCount: r.playersCount(),
			}})

			// both players gone: the room can never be rejoined as a
			// player, so drop it from the listing for good
			if r.white.empty() && r.black.empty() && !r.hidden {
				r.hidden = true
				r.broadcast(reg.sender, Event{T: "roomStatusUpdate", M: RoomStatusUpdate{Status: string(StatusEnded)}})
			}
		} else {
			delete(r.spectators, connID)
		}
		r.mu.Unlock()

		reg.removeIfEmpty(r)
	}
}

// Broadcast fans an arbitrary event out to every connection in the room.
// Used by the transport for concerns outside the game state machine,
// such as chat relay.
func (reg *Registry) Broadcast(roomID string, ev Event) {
	r := reg.lookup(roomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.deleted {
		r.broadcast(reg.sender, ev)
	}
}
