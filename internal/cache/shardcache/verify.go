package shardcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/discochess/gamereview/internal/search"
)

// Problem is one integrity failure found by Verify.
type Problem struct {
	Shard int
	Line  int
	Err   error
}

func (p Problem) String() string {
	if p.Line == 0 {
		return fmt.Sprintf("shard %05d: %v", p.Shard, p.Err)
	}
	return fmt.Sprintf("shard %05d line %d: %v", p.Shard, p.Line, p.Err)
}

// Report summarizes a Verify pass.
type Report struct {
	Shards   int // non-empty shards checked
	Records  int64
	Problems []Problem
}

// OK reports whether no problems were found.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Verify checks that every shard decodes, holds valid records sorted by
// ID, and only contains keys that belong to it. With quick set, only the
// first and last record of each shard are parsed.
func (c *Cache) Verify(ctx context.Context, quick bool) (Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rep Report
	for id := 0; id < c.totalShards; id++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		data, err := c.readShard(ctx, id)
		if err != nil {
			rep.Problems = append(rep.Problems, Problem{Shard: id, Err: err})
			continue
		}
		if data == nil {
			continue
		}
		rep.Shards++

		lines := search.SplitLines(data)
		rep.Records += int64(len(lines))

		var prev string
		for i, line := range lines {
			recID := search.ExtractID(line)
			if recID == "" {
				rep.Problems = append(rep.Problems, Problem{Shard: id, Line: i + 1, Err: fmt.Errorf("missing id")})
				continue
			}
			if recID <= prev {
				rep.Problems = append(rep.Problems, Problem{Shard: id, Line: i + 1, Err: fmt.Errorf("%q not sorted after %q", recID, prev)})
			}
			prev = recID

			if quick && i != 0 && i != len(lines)-1 {
				continue
			}
			var rec search.Record
			if err := json.Unmarshal(line, &rec); err != nil {
				rep.Problems = append(rep.Problems, Problem{Shard: id, Line: i + 1, Err: err})
				continue
			}
			if rec.Key.ID() != rec.ID {
				rep.Problems = append(rep.Problems, Problem{Shard: id, Line: i + 1, Err: fmt.Errorf("id does not match key")})
			}
			if got := c.shardOf(rec.Key); got != id {
				rep.Problems = append(rep.Problems, Problem{Shard: id, Line: i + 1, Err: fmt.Errorf("key belongs to shard %d", got)})
			}
		}
	}
	return rep, nil
}
