// Package fen provides helpers for the position keys used throughout the
// analyzer. A key is a FEN reduced to its first four fields.
package fen

import (
	"errors"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("invalid FEN notation")

// Start is the key of the standard starting position.
const Start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

// Piece values in pawn units.
const (
	PawnValue   = 1.0
	KnightValue = 3.0
	BishopValue = 3.2
	RookValue   = 5.0
	QueenValue  = 9.0
)

// Material holds piece counts for both sides. Kings are not counted.
type Material struct {
	WhitePawns   int
	WhiteKnights int
	WhiteBishops int
	WhiteRooks   int
	WhiteQueens  int

	BlackPawns   int
	BlackKnights int
	BlackBishops int
	BlackRooks   int
	BlackQueens  int
}

// White returns White's material in pawn units.
func (m Material) White() float64 {
	return float64(m.WhitePawns)*PawnValue +
		float64(m.WhiteKnights)*KnightValue +
		float64(m.WhiteBishops)*BishopValue +
		float64(m.WhiteRooks)*RookValue +
		float64(m.WhiteQueens)*QueenValue
}

// Black returns Black's material in pawn units.
func (m Material) Black() float64 {
	return float64(m.BlackPawns)*PawnValue +
		float64(m.BlackKnights)*KnightValue +
		float64(m.BlackBishops)*BishopValue +
		float64(m.BlackRooks)*RookValue +
		float64(m.BlackQueens)*QueenValue
}

// Balance returns side's material minus the opponent's, in pawn units.
// side is "w" or "b".
func (m Material) Balance(side string) float64 {
	if side == "b" {
		return m.Black() - m.White()
	}
	return m.White() - m.Black()
}

// Normalize reduces a FEN to a position key: piece placement, side to
// move, castling rights and en passant square. Move counters are dropped
// so transpositions share a key.
func Normalize(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}
	if !isValidPiecePlacement(parts[0]) {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return strings.Join(parts[:4], " "), nil
}

// Full expands a position key back into a six-field FEN with zeroed
// counters. Full FENs are returned unchanged.
func Full(key string) string {
	switch n := len(strings.Fields(key)); {
	case n >= 6:
		return key
	case n == 5:
		return key + " 1"
	default:
		return key + " 0 1"
	}
}

// ParseMaterial counts the pieces in the placement field of a FEN.
func ParseMaterial(fen string) (Material, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return Material{}, ErrInvalidFEN
	}

	var m Material
	for _, ch := range parts[0] {
		switch ch {
		case 'P':
			m.WhitePawns++
		case 'N':
			m.WhiteKnights++
		case 'B':
			m.WhiteBishops++
		case 'R':
			m.WhiteRooks++
		case 'Q':
			m.WhiteQueens++
		case 'p':
			m.BlackPawns++
		case 'n':
			m.BlackKnights++
		case 'b':
			m.BlackBishops++
		case 'r':
			m.BlackRooks++
		case 'q':
			m.BlackQueens++
		case 'K', 'k', '/', '1', '2', '3', '4', '5', '6', '7', '8':
		default:
			return Material{}, ErrInvalidFEN
		}
	}
	return m, nil
}

// MaterialBalance is shorthand for ParseMaterial followed by Balance.
func MaterialBalance(fen, side string) (float64, error) {
	m, err := ParseMaterial(fen)
	if err != nil {
		return 0, err
	}
	return m.Balance(side), nil
}

// SideToMove returns "w" or "b".
func SideToMove(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return parts[1], nil
}

func isValidPiecePlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}
	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", ch):
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}
	return true
}
