// Package cachetest provides a conformance suite for cache.Cache
// implementations.
package cachetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/eval"
)

var params = eval.Params{Depth: 18, MultiPV: 2}

// Key returns a cache key for fen under the suite's parameters.
func Key(fen string) eval.Key {
	return eval.NewKey(fen, params, "/opt/stockfish/stockfish", "16")
}

func intp(n int) *int { return &n }

// Run exercises c. newCache must return an empty cache.
func Run(t *testing.T, newCache func(t *testing.T) cache.Cache) {
	t.Run("MissThenHit", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		k := Key("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -")
		got, err := c.BatchGet(ctx, []eval.Key{k})
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("BatchGet() on empty cache = %v, want no entries", got)
		}

		set := eval.Set{
			{Move: "e7e5", Centipawns: intp(30), PV: []string{"e7e5", "g1f3"}},
			{Move: "c7c5", Centipawns: intp(35)},
		}
		if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: set}}); err != nil {
			t.Fatalf("BatchPut() error = %v", err)
		}

		got, err = c.BatchGet(ctx, []eval.Key{k})
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if !reflect.DeepEqual(got[k], set) {
			t.Errorf("BatchGet() = %+v, want %+v", got[k], set)
		}
	})

	t.Run("EmptySetIsHit", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		mate := Key("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq -")
		if err := c.BatchPut(ctx, []cache.Entry{{Key: mate, Set: eval.Set{}}}); err != nil {
			t.Fatalf("BatchPut() error = %v", err)
		}
		got, err := c.BatchGet(ctx, []eval.Key{mate})
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		set, ok := got[mate]
		if !ok {
			t.Fatal("stored empty set should be a hit")
		}
		if set == nil || len(set) != 0 {
			t.Errorf("BatchGet() = %#v, want empty non-nil set", set)
		}
	})

	t.Run("NilSetSkipped", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		k := Key("8/8/8/4k3/8/8/4K3/4R3 w - -")
		if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: nil}}); err != nil {
			t.Fatalf("BatchPut() error = %v", err)
		}
		got, err := c.BatchGet(ctx, []eval.Key{k})
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if _, ok := got[k]; ok {
			t.Error("nil set should not be stored")
		}
	})

	t.Run("KeyDimensions", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		fen := "8/8/8/4k3/8/8/4K3/4R3 w - -"
		k := Key(fen)
		if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: eval.Set{{Move: "e1e4", Centipawns: intp(900)}}}}); err != nil {
			t.Fatalf("BatchPut() error = %v", err)
		}

		others := []eval.Key{
			eval.NewKey(fen, eval.Params{Depth: 20, MultiPV: 2}, k.EnginePath, k.EngineVersion),
			eval.NewKey(fen, eval.Params{Depth: 18, MultiPV: 1}, k.EnginePath, k.EngineVersion),
			eval.NewKey(fen, params, "/usr/games/stockfish", k.EngineVersion),
			eval.NewKey(fen, params, k.EnginePath, "17"),
		}
		got, err := c.BatchGet(ctx, others)
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("keys differing in one dimension must miss, got %d hits", len(got))
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		k := Key("8/8/8/4k3/8/8/4K3/4Q3 w - -")
		first := eval.Set{{Move: "e1e2", Centipawns: intp(800)}}
		second := eval.Set{{Move: "e1a5", Mate: intp(5)}}
		for _, set := range []eval.Set{first, second} {
			if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: set}}); err != nil {
				t.Fatalf("BatchPut() error = %v", err)
			}
		}
		got, err := c.BatchGet(ctx, []eval.Key{k})
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if !reflect.DeepEqual(got[k], second) {
			t.Errorf("BatchGet() = %+v, want %+v", got[k], second)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		fens := []string{
			"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -",
			"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq -",
			"8/8/8/4k3/8/8/4K3/4R3 w - -",
		}
		var entries []cache.Entry
		var keys []eval.Key
		for i, f := range fens {
			k := Key(f)
			keys = append(keys, k)
			if i%2 == 0 {
				entries = append(entries, cache.Entry{Key: k, Set: eval.Set{{Move: "a2a3", Centipawns: intp(i)}}})
			}
		}
		if err := c.BatchPut(ctx, entries); err != nil {
			t.Fatalf("BatchPut() error = %v", err)
		}
		got, err := c.BatchGet(ctx, keys)
		if err != nil {
			t.Fatalf("BatchGet() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("BatchGet() returned %d entries, want 2", len(got))
		}
		for i, k := range keys {
			_, ok := got[k]
			if ok != (i%2 == 0) {
				t.Errorf("key %d present = %v, want %v", i, ok, i%2 == 0)
			}
		}

		if counter, ok := c.(cache.Counter); ok {
			n, err := counter.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != 2 {
				t.Errorf("Count() = %d, want 2", n)
			}
		}
	})

	t.Run("Closed", func(t *testing.T) {
		c := newCache(t)
		if err := c.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		ctx := context.Background()
		if _, err := c.BatchGet(ctx, []eval.Key{Key("8/8/8/8/8/8/8/K6k w - -")}); !errors.Is(err, cache.ErrClosed) {
			t.Errorf("BatchGet() after Close error = %v, want ErrClosed", err)
		}
		if err := c.BatchPut(ctx, nil); !errors.Is(err, cache.ErrClosed) {
			t.Errorf("BatchPut() after Close error = %v, want ErrClosed", err)
		}
		if err := c.Close(); !errors.Is(err, cache.ErrClosed) {
			t.Errorf("second Close() error = %v, want ErrClosed", err)
		}
	})
}
