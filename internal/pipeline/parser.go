package pipeline

import (
	"context"
	"fmt"

	"github.com/davetashner/buildsignal/internal/state"
	"github.com/davetashner/buildsignal/internal/testable"
	"github.com/davetashner/buildsignal/internal/xclog"
)

// ParserOptions selects a backend and the caches layered on top of it.
type ParserOptions struct {
	Backend      string
	IncludeNotes bool
	// CacheDir enables the on-disk parse cache. Empty disables it.
	CacheDir string
	// MemoryCache is the in-process LRU size. Zero disables it.
	MemoryCache int
	Executor    testable.CommandExecutor
}

// NewParser builds the parser stack: backend, then the disk cache, then the
// in-memory cache. Long-running processes such as the MCP server set
// MemoryCache; one-shot CLI runs rely on the disk cache.
func NewParser(ctx context.Context, opts ParserOptions) (xclog.Parser, error) {
	p, err := xclog.New(ctx, opts.Backend, xclog.Options{
		IncludeNotes: opts.IncludeNotes,
		Executor:     opts.Executor,
	})
	if err != nil {
		return nil, err
	}
	if opts.CacheDir != "" {
		p = &state.DiskParser{
			Next:    p,
			Store:   state.NewStore(opts.CacheDir),
			Variant: fmt.Sprintf("%s+notes=%t", p.Name(), opts.IncludeNotes),
		}
	}
	if opts.MemoryCache > 0 {
		cached, err := xclog.NewCachedParser(p, opts.MemoryCache)
		if err != nil {
			return nil, err
		}
		p = cached
	}
	return p, nil
}
