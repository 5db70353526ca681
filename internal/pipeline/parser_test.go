package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/state"
	"github.com/davetashner/buildsignal/internal/xclog"
)

func TestNewParser_Native(t *testing.T) {
	p, err := NewParser(context.Background(), ParserOptions{Backend: xclog.BackendNative})
	require.NoError(t, err)
	assert.IsType(t, &xclog.NativeParser{}, p)
}

func TestNewParser_Layers(t *testing.T) {
	p, err := NewParser(context.Background(), ParserOptions{
		Backend:     xclog.BackendNative,
		CacheDir:    t.TempDir(),
		MemoryCache: 4,
	})
	require.NoError(t, err)

	cached, ok := p.(*xclog.CachedParser)
	require.True(t, ok, "memory cache is the outer layer")
	assert.Equal(t, xclog.BackendNative, cached.Name())
}

func TestNewParser_DiskOnly(t *testing.T) {
	p, err := NewParser(context.Background(), ParserOptions{
		Backend:      xclog.BackendNative,
		IncludeNotes: true,
		CacheDir:     t.TempDir(),
	})
	require.NoError(t, err)

	disk, ok := p.(*state.DiskParser)
	require.True(t, ok)
	assert.Equal(t, "native+notes=true", disk.Variant)
}

func TestNewParser_UnknownBackend(t *testing.T) {
	_, err := NewParser(context.Background(), ParserOptions{Backend: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parser backend")
}
