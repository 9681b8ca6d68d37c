// Package engine defines the contract between the analyzer and a chess
// engine.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/discochess/gamereview/internal/eval"
)

// ErrEngine indicates the engine process failed. A batch that returns it
// stops at the failing position.
var ErrEngine = errors.New("engine: process failure")

// ErrClosed indicates the engine has been closed.
var ErrClosed = errors.New("engine: closed")

// Identity describes an engine binary. Path and Version take part in
// cache keys.
type Identity struct {
	// Path is the canonical path of the executable.
	Path string
	// Name is the name reported by the engine, e.g. "Stockfish 16.1".
	Name string
	// Version is the major version, or "unknown".
	Version string
}

// ShortName returns a compact label for annotations, e.g. "SF16".
func (id Identity) ShortName() string {
	if id.Version == "" || id.Version == UnknownVersion {
		return "Engine"
	}
	if strings.HasPrefix(strings.ToLower(id.Name), "stockfish") {
		return "SF" + id.Version
	}
	return "Engine"
}

// UnknownVersion is used when the engine does not report a version.
const UnknownVersion = "unknown"

// Engine evaluates positions. Implementations are not safe for concurrent
// use; callers own the engine exclusively.
type Engine interface {
	// Identity returns the engine's identity.
	Identity() Identity

	// EvaluateBatch evaluates fens one at a time in order, calling progress
	// after each. Positions that cannot be evaluated map to nil. Positions
	// with no legal moves map to an empty set. On failure or cancellation
	// the results gathered so far are returned along with the error.
	EvaluateBatch(ctx context.Context, fens []string, p eval.Params, progress func()) (map[string]eval.Set, error)

	// Close stops the engine.
	Close() error
}
