package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mAyush24/reactchess-server/internal/game"
)

// startedRoom creates a room with Alice (white, conn-a) and Bob
// (black, conn-b) already playing.
func startedRoom(t *testing.T) (*Registry, *fakeSender, string) {
	t.Helper()
	reg, fs := newTestRegistry()
	id := reg.Create("conn-a", "Alice")
	_, err := reg.Join(id, "conn-b", "Bob")
	require.NoError(t, err)
	fs.reset()
	return reg, fs, id
}

func TestAcceptedMoveGrowsHistoryAndFlipsTurn(t *testing.T) {
	reg, fs, id := startedRoom(t)

	require.True(t, reg.SubmitMove(id, "conn-a", "e2e4"))

	state, ok := reg.BoardState(id)
	require.True(t, ok)
	assert.Equal(t, "b", state.Turn)
	assert.Equal(t, "e2e4", state.LastMove)
	require.Len(t, state.MoveHistory, 1)
	assert.Equal(t, "e2e4", state.MoveHistory[0].LastMove)
	assert.Equal(t, "b", state.MoveHistory[0].Turn)

	updates := fs.named("boardUpdate")
	require.Len(t, updates, 2)
	// every member sees the identical update
	assert.Equal(t, updates[0].ev.M, updates[1].ev.M)
}

func TestSpectatorsReceiveSameBoardUpdate(t *testing.T) {
	reg, fs, id := startedRoom(t)
	_, err := reg.Join(id, "conn-s1", "W1")
	require.NoError(t, err)
	_, err = reg.Join(id, "conn-s2", "W2")
	require.NoError(t, err)
	fs.reset()

	require.True(t, reg.SubmitMove(id, "conn-a", "e2e4"))

	updates := fs.named("boardUpdate")
	require.Len(t, updates, 4)
	for _, u := range updates[1:] {
		assert.Equal(t, updates[0].ev.M, u.ev.M)
	}
}

func TestOutOfTurnMoveDropped(t *testing.T) {
	reg, fs, id := startedRoom(t)

	assert.False(t, reg.SubmitMove(id, "conn-b", "e7e5"))

	state, _ := reg.BoardState(id)
	assert.Empty(t, state.MoveHistory)
	assert.Equal(t, "w", state.Turn)
	assert.Empty(t, fs.named("boardUpdate"))
}

func TestIllegalMoveDropped(t *testing.T) {
	reg, fs, id := startedRoom(t)

	assert.False(t, reg.SubmitMove(id, "conn-a", "e2e5"))

	state, _ := reg.BoardState(id)
	assert.Empty(t, state.MoveHistory)
	assert.Empty(t, fs.named("boardUpdate"))
}

func TestMoveFromSpectatorOrStrangerDropped(t *testing.T) {
	reg, fs, id := startedRoom(t)
	_, err := reg.Join(id, "conn-s", "Watcher")
	require.NoError(t, err)
	fs.reset()

	assert.False(t, reg.SubmitMove(id, "conn-s", "e2e4"))
	assert.False(t, reg.SubmitMove(id, "conn-nobody", "e2e4"))
	assert.False(t, reg.SubmitMove("no-room", "conn-a", "e2e4"))

	state, _ := reg.BoardState(id)
	assert.Empty(t, state.MoveHistory)
	assert.Empty(t, fs.named("boardUpdate"))
}

func TestCheckmateEndsRoom(t *testing.T) {
	reg, fs, id := startedRoom(t)

	moves := []struct {
		conn string
		move string
	}{
		{"conn-a", "f2f3"},
		{"conn-b", "e7e5"},
		{"conn-a", "g2g4"},
		{"conn-b", "d8h4"},
	}
	for _, m := range moves {
		require.True(t, reg.SubmitMove(id, m.conn, m.move))
	}

	overs := fs.named("gameOver")
	require.Len(t, overs, 2)
	assert.Equal(t, GameOver{Reason: game.ReasonCheckmate}, overs[0].ev.M)

	state, _ := reg.BoardState(id)
	assert.Equal(t, StatusEnded, state.Status)
	assert.True(t, state.GameOver)
	require.Len(t, state.MoveHistory, 4)

	// no moves on an ended room
	assert.False(t, reg.SubmitMove(id, "conn-a", "g1f3"))
	state, _ = reg.BoardState(id)
	assert.Len(t, state.MoveHistory, 4)
}

func TestMoveAllowedWhileWaitingForOpponent(t *testing.T) {
	// the turn gate checks slot ownership, not lifecycle state; white
	// may open before black arrives, exactly as the original server does
	reg, _ := newTestRegistry()
	id := reg.Create("conn-a", "Alice")

	assert.True(t, reg.SubmitMove(id, "conn-a", "e2e4"))
	state, _ := reg.BoardState(id)
	assert.Equal(t, StatusWaiting, state.Status)
	assert.Len(t, state.MoveHistory, 1)
}

func TestBoardStateIdempotent(t *testing.T) {
	reg, _, id := startedRoom(t)
	require.True(t, reg.SubmitMove(id, "conn-a", "e2e4"))

	first, ok := reg.BoardState(id)
	require.True(t, ok)
	second, ok := reg.BoardState(id)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.PlayersConnected)
}

func TestConcurrentMovesForSameSideApplyExactlyOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		reg, _, id := startedRoom(t)

		var wg sync.WaitGroup
		results := make([]bool, 2)
		for j, move := range []string{"e2e4", "d2d4"} {
			wg.Add(1)
			go func(j int, move string) {
				defer wg.Done()
				results[j] = reg.SubmitMove(id, "conn-a", move)
			}(j, move)
		}
		wg.Wait()

		accepted := 0
		for _, r := range results {
			if r {
				accepted++
			}
		}
		assert.Equal(t, 1, accepted, "exactly one of two racing moves must land")

		state, _ := reg.BoardState(id)
		assert.Len(t, state.MoveHistory, 1)
		assert.Equal(t, "b", state.Turn)
	}
}

func TestConcurrentOperationsOnDistinctRooms(t *testing.T) {
	reg, _ := newTestRegistry()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		conn := string(rune('a' + i))
		ids[i] = reg.Create("white-"+conn, "W")
		_, err := reg.Join(ids[i], "black-"+conn, "B")
		require.NoError(t, err)
	}

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			conn := string(rune('a' + i))
			reg.SubmitMove(id, "white-"+conn, "e2e4")
			reg.SubmitMove(id, "black-"+conn, "e7e5")
		}(i, id)
	}
	wg.Wait()

	for _, id := range ids {
		state, ok := reg.BoardState(id)
		require.True(t, ok)
		assert.Len(t, state.MoveHistory, 2)
	}
}
