package badgercache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/cachetest"
	"github.com/discochess/gamereview/internal/eval"
)

func TestCache_InMemory(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache {
		c, err := Open(Config{InMemory: true})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		return c
	})
}

func TestCache_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	k := cachetest.Key("8/8/8/4k3/8/8/4K3/4R3 w - -")

	c, err := Open(Config{Path: dir, Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := c.BatchPut(ctx, []cache.Entry{{Key: k, Set: eval.Set{{Move: "e1e4"}}}}); err != nil {
		t.Fatalf("BatchPut() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	c, err = Open(Config{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()

	got, err := c.BatchGet(ctx, []eval.Key{k})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if got[k].Best() == nil || got[k].Best().Move != "e1e4" {
		t.Errorf("BatchGet() after reopen = %+v, want e1e4", got[k])
	}
}

func TestOpen_NoPath(t *testing.T) {
	if _, err := Open(Config{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("Open() error = %v, want ErrNoPath", err)
	}
}
