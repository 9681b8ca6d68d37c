package micro

import (
	"context"
	"fmt"
	"testing"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/memcache"
	"github.com/discochess/gamereview/internal/cache/shardcache"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/pgn"
	"github.com/discochess/gamereview/internal/store/cachedstore"
	"github.com/discochess/gamereview/internal/store/cachedstore/memory"
	"github.com/discochess/gamereview/internal/store/diskstore"
)

const immortal = `[White "Kasparov, Garry"]
[Black "Topalov, Veselin"]

1. e4 d6 2. d4 Nf6 3. Nc3 g6 4. Be3 Bg7 5. Qd2 c6 6. f3 b5 7. Nge2 Nbd7
8. Bh6 Bxh6 9. Qxh6 Bb7 10. a3 e5 11. O-O-O Qe7 12. Kb1 a6 13. Nc1 O-O-O
14. Nb3 exd4 15. Rxd4 c5 16. Rd1 Nb6 17. g3 Kb8 18. Na5 Ba8 19. Bh3 d5
20. Qf4+ Ka7 21. Rhe1 d4 22. Nd5 Nbxd5 23. exd5 Qd6 24. Rxd4 cxd4 25. Re7+ Kb6 1-0`

// flatEngine scores every position as equal.
type flatEngine struct{}

func (flatEngine) Identity() engine.Identity {
	return engine.Identity{Path: "/bench/stockfish", Name: "Stockfish 16", Version: "16"}
}

func (flatEngine) EvaluateBatch(ctx context.Context, fens []string, p eval.Params, progress func()) (map[string]eval.Set, error) {
	out := make(map[string]eval.Set, len(fens))
	for i, f := range fens {
		cp := i % 50
		out[f] = eval.Set{{Move: "e2e4", Centipawns: &cp, PV: []string{"e2e4", "e7e5"}}}
		progress()
	}
	return out, nil
}

func (flatEngine) Close() error { return nil }

func benchmarkAnalyze(b *testing.B, c cache.Cache) {
	g, err := pgn.Parse(immortal)
	if err != nil {
		b.Fatalf("parsing game: %v", err)
	}
	a, err := gamereview.New(gamereview.WithEngine(flatEngine{}), gamereview.WithCache(c))
	if err != nil {
		b.Fatalf("creating analyzer: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	// Warm the cache.
	if _, err := a.AnalyzeGame(ctx, g); err != nil {
		b.Fatalf("analyzing: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.AnalyzeGame(ctx, g); err != nil {
			b.Fatalf("analyzing: %v", err)
		}
	}
}

// BenchmarkAnalyzeGame_MemCache measures a fully cached game against the
// in-memory cache.
func BenchmarkAnalyzeGame_MemCache(b *testing.B) {
	benchmarkAnalyze(b, memcache.New())
}

// BenchmarkAnalyzeGame_ShardCache measures a fully cached game against a
// disk shard cache with an LRU front.
func BenchmarkAnalyzeGame_ShardCache(b *testing.B) {
	for _, size := range []int{1, 100} {
		b.Run(fmt.Sprintf("lru=%d", size), func(b *testing.B) {
			st, err := diskstore.New(b.TempDir(), zstdcodec.New())
			if err != nil {
				b.Fatalf("creating store: %v", err)
			}
			c := shardcache.New(cachedstore.New(st, memory.New(size, 0, nil)), shardcache.WithTotalShards(64))
			defer c.Close()
			benchmarkAnalyze(b, c)
		})
	}
}

// BenchmarkClassify measures the classifier alone.
func BenchmarkClassify(b *testing.B) {
	cl, err := gamereview.NewClassifier(gamereview.DefaultCriteria())
	if err != nil {
		b.Fatal(err)
	}
	mc := gamereview.MoveContext{
		Move:      "e2e4",
		Best:      gamereview.Score{Value: 40, Valid: true},
		Second:    gamereview.Score{Value: -90, Valid: true},
		Played:    gamereview.Score{Value: 35, Valid: true},
		Before:    gamereview.Score{Value: 40, Valid: true},
		MultiPV:   2,
		Sacrifice: 3,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cl.Classify(mc)
	}
}
