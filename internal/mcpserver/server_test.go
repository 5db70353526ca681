package mcpserver

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/config"
)

func TestNew_RequiresPipeline(t *testing.T) {
	_, err := New(Options{Version: "v1.0.0-test"})
	require.Error(t, err)
}

func TestNew_RejectsBadCustomCategory(t *testing.T) {
	h := testHandlers(t)
	cfg := &config.Config{CustomCategories: []category.Category{{ID: "other", Name: "Clash", Patterns: []string{"x"}}}}
	_, err := New(Options{Version: "v1.0.0-test", Pipeline: h.pipe, Config: cfg})
	require.Error(t, err)
}

func TestRun_ListsTools(t *testing.T) {
	h := testHandlers(t)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Options{Version: "v1.0.0-test", Pipeline: h.pipe, Store: h.store}, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "v1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close() //nolint:errcheck // best-effort close in test

	result, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
		require.NotNil(t, tool.Annotations)
		assert.True(t, tool.Annotations.ReadOnlyHint, "%s should be read-only", tool.Name)
	}
	assert.Len(t, result.Tools, 7)
	for _, want := range []string{"list_projects", "list_builds", "notices", "tree", "categories", "diff", "report"} {
		assert.True(t, names[want], "should have %s tool", want)
	}

	call, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, call.IsError)
	assert.Contains(t, textOf(t, call), "Shop-xyz")

	cancel()
}
