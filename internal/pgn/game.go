// Package pgn reads and writes PGN game collections.
//
// Games are parsed with github.com/notnil/chess into immutable Game values.
// Annotated output is produced from a Game plus an explicit map of move
// index to comment, so the parsed game is never modified.
package pgn

import (
	"errors"
	"regexp"
	"strings"

	"github.com/discochess/gamereview/internal/board"
)

// ErrNoGames indicates an input with no parseable games.
var ErrNoGames = errors.New("pgn: no games found")

// Tag is one PGN header.
type Tag struct {
	Key   string
	Value string
}

// Move is one played move together with the positions around it.
type Move struct {
	// Index is the ply index within the game, starting at 0.
	Index int

	// Side is the mover, "w" or "b".
	Side string

	// Number is the full move number printed in movetext.
	Number int

	UCI string
	SAN string

	// Before and After are position keys.
	Before string
	After  string

	// AfterStatus reports whether the move ended the game on the board.
	AfterStatus board.Status

	// Comment is the comment found after the move in the source PGN.
	Comment string
}

// Game is a parsed game. It is not modified after parsing.
type Game struct {
	Tags []Tag

	// Intro is a comment placed before the first move, e.g. an opening name.
	Intro string

	Start  string
	Moves  []Move
	Result string
}

// Tag returns the value of the named header, or "".
func (g *Game) Tag(key string) string {
	for _, t := range g.Tags {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}

// Headers returns the headers as a map.
func (g *Game) Headers() map[string]string {
	m := make(map[string]string, len(g.Tags))
	for _, t := range g.Tags {
		m[t.Key] = t.Value
	}
	return m
}

var gameIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`lichess\.org/([a-zA-Z0-9]{8,12})`),
	regexp.MustCompile(`chess\.com/game/live/([0-9]+)`),
	regexp.MustCompile(`chess\.com/analysis/game/live/([0-9]+)`),
}

// GameID extracts a stable identifier from game headers. Lichess and
// chess.com URLs in Site or LichessURL win over the GameId header.
// It returns "" when no identifier is present.
func GameID(headers map[string]string) string {
	for _, tag := range []string{"Site", "LichessURL"} {
		value := headers[tag]
		if value == "" {
			continue
		}
		for _, re := range gameIDPatterns {
			if m := re.FindStringSubmatch(value); m != nil {
				return m[1]
			}
		}
	}
	if id := strings.TrimSpace(headers["GameId"]); id != "" && id != "?" {
		return id
	}
	return ""
}
