package game

// Color identifies a playing side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Short returns the single-letter form used on the wire ("w" / "b").
func (c Color) Short() string {
	if c == White {
		return "w"
	}
	return "b"
}

// HistoryEntry is one snapshot per accepted move: the position after the
// move, the move itself, and the side to move next.
type HistoryEntry struct {
	FEN      string `json:"fen"`
	LastMove string `json:"lastMove"`
	Turn     string `json:"turn"`
}

// Outcome reports whether a position is terminal and why.
type Outcome struct {
	Over   bool
	Reason string
}

// Terminal reasons produced by the oracle. Forfeit is decided by the
// room coordinator, never by the oracle.
const (
	ReasonCheckmate    = "checkmate"
	ReasonDraw         = "draw"
	ReasonStalemate    = "stalemate"
	ReasonRepetition   = "repetition"
	ReasonInsufficient = "insufficient material"
	ReasonForfeit      = "forfeit"
)

// Oracle validates moves against a single evolving position and detects
// terminal conditions. Implementations are not safe for concurrent use;
// callers serialize access per game.
type Oracle interface {
	// Turn reports the side to move.
	Turn() Color
	// FEN renders the current position.
	FEN() string
	// ApplyMove applies a fully-specified move (UCI preferred, SAN
	// accepted) or returns ErrIllegalMove leaving the position unchanged.
	ApplyMove(move string) error
	// Outcome reports the terminal status of the current position.
	Outcome() Outcome
}
