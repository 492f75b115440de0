package game

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ErrIllegalMove is returned when the rules reject a candidate move.
var ErrIllegalMove = errors.New("illegal move")

// Chess is the Oracle implementation backed by corentings/chess.
type Chess struct {
	game *nchess.Game
}

// NewChess returns an oracle at the standard starting position.
func NewChess() Oracle {
	return &Chess{game: nchess.NewGame()}
}

// NewChessFromFEN returns an oracle at an arbitrary position.
func NewChessFromFEN(fen string) (Oracle, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return &Chess{game: nchess.NewGame(opt)}, nil
}

func (c *Chess) Turn() Color {
	if c.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (c *Chess) FEN() string {
	return c.game.FEN()
}

func (c *Chess) ApplyMove(move string) error {
	move = strings.TrimSpace(move)
	if move == "" {
		return ErrIllegalMove
	}

	pos := c.game.Position()
	if mv, err := (nchess.UCINotation{}).Decode(pos, strings.ToLower(move)); err == nil {
		if err := c.game.Move(mv, nil); err != nil {
			return ErrIllegalMove
		}
	} else if err := c.game.PushNotationMove(move, nchess.AlgebraicNotation{}, nil); err != nil {
		return ErrIllegalMove
	}

	c.claimRepetition()
	return nil
}

// claimRepetition ends the game on threefold repetition as soon as the
// position becomes eligible, matching the automatic repetition detection
// the clients rely on.
func (c *Chess) claimRepetition() {
	if c.game.Outcome() != nchess.NoOutcome {
		return
	}
	for _, m := range c.game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition {
			_ = c.game.Draw(m)
			return
		}
	}
}

func (c *Chess) Outcome() Outcome {
	if c.game.Outcome() == nchess.NoOutcome {
		return Outcome{}
	}
	reason := ReasonDraw
	switch c.game.Method() {
	case nchess.Checkmate:
		reason = ReasonCheckmate
	case nchess.Stalemate:
		reason = ReasonStalemate
	case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
		reason = ReasonRepetition
	case nchess.InsufficientMaterial:
		reason = ReasonInsufficient
	}
	return Outcome{Over: true, Reason: reason}
}
