package xclog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
)

const bin = "/usr/local/bin/xclogparser"

func TestCLIParser_CheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		exec    *testable.MockCommandExecutor
		wantErr string
	}{
		{
			name: "recent",
			exec: &testable.MockCommandExecutor{CommandOutputs: map[string]string{bin + " version": "0.2.39\n"}},
		},
		{
			name: "v prefix",
			exec: &testable.MockCommandExecutor{CommandOutputs: map[string]string{bin + " version": "v0.3.0"}},
		},
		{
			name:    "too old",
			exec:    &testable.MockCommandExecutor{CommandOutputs: map[string]string{bin + " version": "0.2.10"}},
			wantErr: "older than required",
		},
		{
			name:    "garbage",
			exec:    &testable.MockCommandExecutor{CommandOutputs: map[string]string{bin + " version": "unknown"}},
			wantErr: "unrecognized version",
		},
		{
			name:    "command fails",
			exec:    &testable.MockCommandExecutor{DefaultError: "segfault"},
			wantErr: "segfault",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCLIParser(tt.exec).CheckVersion(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCLIParser_NotInstalled(t *testing.T) {
	p := NewCLIParser(&testable.MockCommandExecutor{LookPathErr: errors.New("nope")})
	assert.ErrorIs(t, p.CheckVersion(context.Background()), ErrParserNotFound)

	_, err := p.Parse(context.Background(), "/tmp/x.xcactivitylog")
	assert.ErrorIs(t, err, ErrParserNotFound)
}

func TestCLIParser_Parse(t *testing.T) {
	out := `{"errors":[{"type":"swiftError","title":"cannot find 'y' in scope","severity":2,"documentURL":"file:///a/B.swift","startingLineNumber":3,"startingColumnNumber":5}],` +
		`"warnings":[{"type":"deprecatedWarning","title":"'x' is deprecated","severity":1,"documentURL":"file:///a/B.swift","startingLineNumber":8},` +
		`{"title":"Update to recommended settings","severity":1}]}`
	exec := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{bin + " parse --file /logs/a.xcactivitylog --reporter issues": out},
	}

	log, err := NewCLIParser(exec).Parse(context.Background(), "/logs/a.xcactivitylog")
	require.NoError(t, err)
	require.Len(t, log.Notices, 3)
	assert.Equal(t, signal.StatusUnknown, log.Status)
	assert.Equal(t, signal.TypeSwiftError, log.Notices[0].Type)
	assert.Equal(t, "/a/B.swift", log.Notices[0].FilePath())
	assert.Equal(t, 3, log.Notices[0].StartingLine)
	assert.Equal(t, signal.TypeDeprecatedWarning, log.Notices[1].Type)
	// Missing type is inferred.
	assert.Equal(t, signal.TypeProjectWarning, log.Notices[2].Type)
	assert.Contains(t, exec.Calls, bin+" parse --file /logs/a.xcactivitylog --reporter issues")
}

func TestCLIParser_BadJSON(t *testing.T) {
	exec := &testable.MockCommandExecutor{DefaultOutput: "not json"}
	_, err := NewCLIParser(exec).Parse(context.Background(), "/logs/a.xcactivitylog")
	assert.ErrorContains(t, err, "decode xclogparser output")
}
