package xclog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/davetashner/buildsignal/internal/signal"
)

// DefaultCacheSize is the number of parsed logs CachedParser keeps.
const DefaultCacheSize = 64

// CachedParser memoizes another Parser. Entries are keyed by path, size and
// modification time, so a rewritten log is parsed again.
type CachedParser struct {
	next  Parser
	cache *lru.Cache[string, *signal.BuildLog]
}

// Compile-time interface check.
var _ Parser = (*CachedParser)(nil)

// NewCachedParser wraps next with an LRU of the given size.
func NewCachedParser(next Parser, size int) (*CachedParser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *signal.BuildLog](size)
	if err != nil {
		return nil, err
	}
	return &CachedParser{next: next, cache: cache}, nil
}

// Name returns the wrapped backend's name.
func (c *CachedParser) Name() string { return c.next.Name() }

// Parse returns a cached result when the file is unchanged.
func (c *CachedParser) Parse(ctx context.Context, path string) (*signal.BuildLog, error) {
	info, err := FS.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if log, ok := c.cache.Get(key); ok {
		return log, nil
	}
	log, err := c.next.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	if !log.Truncated {
		c.cache.Add(key, log)
	}
	return log, nil
}

// Len returns the number of cached logs.
func (c *CachedParser) Len() int { return c.cache.Len() }
