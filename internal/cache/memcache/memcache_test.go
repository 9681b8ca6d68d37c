package memcache

import (
	"testing"

	"github.com/discochess/gamereview/internal/cache"
	"github.com/discochess/gamereview/internal/cache/cachetest"
)

func TestCache(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache { return New() })
}
