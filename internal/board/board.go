// Package board adapts github.com/notnil/chess to the position keys used
// by the analyzer. It decodes keys, applies UCI moves, renders SAN and
// reports terminal states.
package board

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/discochess/gamereview/internal/fen"
)

// ErrInvalidPosition indicates a key that does not decode to a position.
var ErrInvalidPosition = errors.New("board: invalid position")

// ErrIllegalMove indicates a move that is not legal in the position.
var ErrIllegalMove = errors.New("board: illegal move")

// Status describes whether a position is terminal.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Decode parses a position key or a full FEN.
func Decode(key string) (*chess.Position, error) {
	if _, err := fen.Normalize(key); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, key)
	}
	opt, err := chess.FEN(fen.Full(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// Key returns the normalized key of pos.
func Key(pos *chess.Position) string {
	key, err := fen.Normalize(pos.String())
	if err != nil {
		return pos.String()
	}
	return key
}

// StatusOf reports whether pos is checkmate, stalemate or neither.
func StatusOf(pos *chess.Position) Status {
	switch pos.Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	default:
		return Ongoing
	}
}

// Side returns "w" or "b" for the side to move in pos.
func Side(pos *chess.Position) string {
	if pos.Turn() == chess.Black {
		return "b"
	}
	return "w"
}

// Find returns the legal move in pos matching the UCI string.
func Find(pos *chess.Position, uci string) (*chess.Move, error) {
	for _, m := range pos.ValidMoves() {
		if m.String() == uci {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
}

// SAN renders a UCI move in standard algebraic notation.
func SAN(pos *chess.Position, uci string) (string, error) {
	m, err := Find(pos, uci)
	if err != nil {
		return "", err
	}
	return chess.AlgebraicNotation{}.Encode(pos, m), nil
}

// Variation renders up to max moves of a UCI line in SAN. An illegal move
// is rendered as "<uci>?" and ends the variation.
func Variation(pos *chess.Position, line []string, max int) []string {
	if max >= 0 && len(line) > max {
		line = line[:max]
	}
	out := make([]string, 0, len(line))
	for _, uci := range line {
		m, err := Find(pos, uci)
		if err != nil {
			out = append(out, uci+"?")
			break
		}
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
		pos = pos.Update(m)
	}
	return out
}
