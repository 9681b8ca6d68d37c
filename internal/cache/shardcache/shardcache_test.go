package shardcache

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/cachetest"
	"github.com/discochess/gamereview/internal/codec/zstdcodec"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/search"
	"github.com/discochess/gamereview/internal/shard/fnvshard"
	"github.com/discochess/gamereview/internal/store/diskstore"
	"github.com/discochess/gamereview/internal/store/memstore"
)

func TestCache_MemStore(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache {
		return New(memstore.New(), WithTotalShards(16))
	})
}

func TestCache_DiskStore(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache {
		s, err := diskstore.New(t.TempDir(), zstdcodec.New())
		if err != nil {
			t.Fatalf("diskstore.New() error = %v", err)
		}
		return New(s, WithTotalShards(8), WithStrategy(fnvshard.New()))
	})
}

func TestCache_OneWritePerShard(t *testing.T) {
	st := memstore.New()
	c := New(st, WithTotalShards(4))
	ctx := context.Background()

	// Same material: all land in one shard.
	entries := []cache.Entry{
		{Key: cachetest.Key("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"), Set: eval.Set{}},
		{Key: cachetest.Key("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -"), Set: eval.Set{}},
		{Key: cachetest.Key("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq -"), Set: eval.Set{}},
	}
	if err := c.BatchPut(ctx, entries); err != nil {
		t.Fatalf("BatchPut() error = %v", err)
	}
	if got := st.Writes(); got != 1 {
		t.Errorf("store writes = %d, want 1", got)
	}
}

func TestCache_CorruptRecordIsMiss(t *testing.T) {
	st := memstore.New()
	c := New(st, WithTotalShards(4))
	ctx := context.Background()

	// Same material: both keys share a shard.
	bad := cachetest.Key("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	good := cachetest.Key("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -")
	if c.ShardOf(bad) != c.ShardOf(good) {
		t.Fatalf("keys in shards %d and %d, want one shard", c.ShardOf(bad), c.ShardOf(good))
	}

	truncated := []byte(`{"id":"` + bad.ID() + `","key":{"fen":"rnbqkbnr` + "\n")
	data, err := search.Merge(truncated, []search.Record{search.NewRecord(good, eval.Set{{Move: "e7e5"}})})
	if err != nil {
		t.Fatal(err)
	}
	st.SetShard(c.ShardOf(bad), data)

	got, err := c.BatchGet(ctx, []eval.Key{bad, good})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if _, ok := got[bad]; ok {
		t.Errorf("BatchGet() returned the corrupt record")
	}
	if set, ok := got[good]; !ok || set.Best().Move != "e7e5" {
		t.Errorf("BatchGet()[good] = %+v, %v, want e7e5", set, ok)
	}

	if err := c.BatchPut(ctx, []cache.Entry{{Key: bad, Set: eval.Set{{Move: "e2e4"}}}}); err != nil {
		t.Fatalf("BatchPut() error = %v", err)
	}
	got, err = c.BatchGet(ctx, []eval.Key{bad, good})
	if err != nil {
		t.Fatalf("BatchGet() after BatchPut error = %v", err)
	}
	if len(got) != 2 || len(got[bad]) == 0 || got[bad].Best().Move != "e2e4" {
		t.Errorf("BatchGet() = %+v, want both keys with the rewritten record", got)
	}
}

func TestCache_Verify(t *testing.T) {
	st := memstore.New()
	c := New(st, WithTotalShards(4))
	ctx := context.Background()

	k := cachetest.Key("8/8/8/4k3/8/8/4K3/4R3 w - -")
	if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: eval.Set{{Move: "e1e4"}}}}); err != nil {
		t.Fatalf("BatchPut() error = %v", err)
	}

	rep, err := c.Verify(ctx, false)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !rep.OK() || rep.Shards != 1 || rep.Records != 1 {
		t.Errorf("Verify() = %+v, want one clean shard with one record", rep)
	}

	// A record filed under the wrong shard.
	wrong := (c.ShardOf(k) + 1) % 4
	data, err := search.Merge(nil, []search.Record{search.NewRecord(k, eval.Set{})})
	if err != nil {
		t.Fatal(err)
	}
	st.SetShard(wrong, data)
	// Unsorted lines.
	st.SetShard((wrong+1)%4, []byte(`{"id":"b"}`+"\n"+`{"id":"a"}`+"\n"))

	rep, err = c.Verify(ctx, true)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if rep.OK() {
		t.Fatal("Verify() should report problems")
	}
	if len(rep.Problems) < 2 {
		t.Errorf("Verify() found %d problems, want at least 2: %v", len(rep.Problems), rep.Problems)
	}
}

func TestEnsureManifest(t *testing.T) {
	dir := t.TempDir()
	want := Manifest{TotalShards: 64, Strategy: "material", Compression: "zst"}

	m, err := EnsureManifest(dir, want)
	if err != nil {
		t.Fatalf("EnsureManifest() error = %v", err)
	}
	if m.Version != ManifestVersion || m.CreatedAt.IsZero() {
		t.Errorf("EnsureManifest() = %+v, want version and timestamp set", m)
	}

	if _, err := EnsureManifest(dir, want); err != nil {
		t.Errorf("EnsureManifest() on matching layout error = %v", err)
	}

	other := want
	other.TotalShards = 128
	if _, err := EnsureManifest(dir, other); !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("EnsureManifest() error = %v, want ErrLayoutMismatch", err)
	}
}
