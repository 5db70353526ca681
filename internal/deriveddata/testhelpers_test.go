package deriveddata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func marshalPlist(t *testing.T, v any) []byte {
	t.Helper()
	data, err := plist.Marshal(v, plist.XMLFormat)
	require.NoError(t, err)
	return data
}

func infoPlist(t *testing.T, workspace string, accessed time.Time) []byte {
	t.Helper()
	return marshalPlist(t, map[string]any{
		"WorkspacePath":    workspace,
		"LastAccessedDate": accessed,
	})
}

func buildEntry(status string, started, stopped time.Time) map[string]any {
	return map[string]any{
		"domainType":           "Xcode3BuildLog",
		"title":                "Build MyApp",
		"timeStartedRecording": ToReferenceDate(started),
		"timeStoppedRecording": ToReferenceDate(stopped),
		"primaryObservable": map[string]any{
			"highLevelStatus":       status,
			"totalNumberOfWarnings": 3,
			"totalNumberOfErrors":   0,
		},
	}
}

func writeProject(t *testing.T, root, id string, info []byte, manifest []byte) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Logs", "Build"), 0o750))
	if info != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "info.plist"), info, 0o600))
	}
	if manifest != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Logs", "Build", "LogStoreManifest.plist"), manifest, 0o600))
	}
	return dir
}
