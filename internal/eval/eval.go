// Package eval defines the engine evaluation records shared by the
// analyzer, the engine adapters and the cache backends.
package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Line is one candidate move reported by the engine for a position.
//
// Scores are White-relative: positive values favor White, and a positive
// Mate means White delivers mate.
type Line struct {
	// Move is the candidate move in UCI notation.
	Move string `json:"move"`

	// Centipawns is nil when the line is a forced mate or the value was
	// not a number.
	Centipawns *int `json:"cp,omitempty"`

	// Mate is the distance to mate in moves, nil when there is no mate.
	Mate *int `json:"mate,omitempty"`

	// PV is the principal variation in UCI notation, starting with Move.
	PV []string `json:"pv,omitempty"`
}

// UnmarshalJSON decodes a line, turning non-numeric cp or mate values
// into nil instead of failing the whole record.
func (l *Line) UnmarshalJSON(data []byte) error {
	var raw struct {
		Move       string          `json:"move"`
		Centipawns json.RawMessage `json:"cp"`
		Mate       json.RawMessage `json:"mate"`
		PV         []string        `json:"pv"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Move = raw.Move
	l.Centipawns = lenientInt(raw.Centipawns)
	l.Mate = lenientInt(raw.Mate)
	l.PV = raw.PV
	return nil
}

// lenientInt accepts a JSON number or a numeric string.
func lenientInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(raw), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	return &n
}

// Set is the ranked list of lines for one position, best first.
// An empty, non-nil Set means the position has no legal moves.
type Set []Line

// Best returns the engine's top line, or nil.
func (s Set) Best() *Line {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

// At returns the line at rank i, or nil.
func (s Set) At(i int) *Line {
	if i < 0 || i >= len(s) {
		return nil
	}
	return &s[i]
}

// Contains reports whether move appears in any line.
func (s Set) Contains(move string) bool {
	for _, l := range s {
		if l.Move == move {
			return true
		}
	}
	return false
}

// Marshal encodes the set as compact JSON.
func (s Set) Marshal() ([]byte, error) {
	if s == nil {
		s = Set{}
	}
	return json.Marshal(s)
}

// Unmarshal decodes a set previously produced by Marshal.
func Unmarshal(data []byte) (Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding evaluation set: %w", err)
	}
	if s == nil {
		s = Set{}
	}
	return s, nil
}

// Params are the search parameters an evaluation was produced with.
type Params struct {
	Depth   int
	MultiPV int
}

// Key identifies a cached evaluation. Identical keys always resolve to
// identical sets.
type Key struct {
	FEN           string `json:"fen"`
	Depth         int    `json:"depth"`
	MultiPV       int    `json:"multipv"`
	EnginePath    string `json:"engine_path"`
	EngineVersion string `json:"engine_version"`
}

// NewKey builds a key for fen under the given parameters and engine.
func NewKey(fen string, p Params, enginePath, engineVersion string) Key {
	return Key{
		FEN:           fen,
		Depth:         p.Depth,
		MultiPV:       p.MultiPV,
		EnginePath:    enginePath,
		EngineVersion: engineVersion,
	}
}

// Params returns the search parameters of the key.
func (k Key) Params() Params {
	return Params{Depth: k.Depth, MultiPV: k.MultiPV}
}

// ID returns a flat string form of the key. IDs sort by FEN first.
func (k Key) ID() string {
	h := fnv.New64a()
	h.Write([]byte(k.EnginePath))
	h.Write([]byte{0})
	h.Write([]byte(k.EngineVersion))
	return fmt.Sprintf("%s|d%d|pv%d|%016x", k.FEN, k.Depth, k.MultiPV, h.Sum64())
}
