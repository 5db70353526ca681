package xclog

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// slfWriter builds SLF streams for tests.
type slfWriter struct {
	buf     bytes.Buffer
	classes map[string]int
}

func newSLFWriter() *slfWriter {
	w := &slfWriter{classes: make(map[string]int)}
	w.buf.WriteString("SLF0")
	return w
}

func (w *slfWriter) int(n uint64) { fmt.Fprintf(&w.buf, "%d#", n) }
func (w *slfWriter) str(s string) { fmt.Fprintf(&w.buf, "%d\"%s", len(s), s) }
func (w *slfWriter) null()        { w.buf.WriteByte('-') }
func (w *slfWriter) list(n int)   { fmt.Fprintf(&w.buf, "%d(", n) }

func (w *slfWriter) double(f float64) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(f))
	w.buf.WriteString(hex.EncodeToString(raw))
	w.buf.WriteByte('^')
}

func (w *slfWriter) class(name string) {
	if idx, ok := w.classes[name]; ok {
		fmt.Fprintf(&w.buf, "%d@", idx)
		return
	}
	w.classes[name] = len(w.classes) + 1
	fmt.Fprintf(&w.buf, "%d%%%s", len(name), name)
}

// section writes an IDEActivityLogSection with the given children.
func (w *slfWriter) section(title string, subs []func(), msgs []func()) {
	w.class("IDEActivityLogSection")
	w.int(2)
	w.str("com.apple.dt.IDE.BuildLogSection")
	w.str(title)
	w.str(title)
	w.double(700000000)
	w.double(700000042)
	if len(subs) == 0 {
		w.null()
	} else {
		w.list(len(subs))
		for _, s := range subs {
			s()
		}
	}
	w.str("")
	if len(msgs) == 0 {
		w.null()
	} else {
		w.list(len(msgs))
		for _, m := range msgs {
			m()
		}
	}
	w.int(0) // wasCancelled
	w.int(0) // isQuiet
	w.int(0) // wasFetchedFromCache
	w.str("")
	w.null() // location
	w.str("")
	w.str("S-0001")
	w.str("Succeeded")
	w.str("")
	w.null() // attachments
}

type testMsg struct {
	class    string
	title    string
	severity uint64
	kind     string
	url      string
	line     uint64
	col      uint64
	category string
	subs     []testMsg
	locClass string
}

func (w *slfWriter) message(m testMsg) {
	class := m.class
	if class == "" {
		class = classDiagnosticMessage
	}
	w.class(class)
	w.str(m.title)
	w.str(m.title)
	w.double(700000001)
	w.int(unknownLine)
	w.int(unknownLine)
	if len(m.subs) == 0 {
		w.null()
	} else {
		w.list(len(m.subs))
		for _, s := range m.subs {
			w.message(s)
		}
	}
	w.int(m.severity)
	w.str(m.kind)
	switch {
	case m.url == "":
		w.null()
	case m.locClass != "":
		w.class(m.locClass)
		w.str(m.url)
		w.double(0)
	default:
		w.class(classTextLocation)
		w.str(m.url)
		w.double(0)
		w.int(m.line)
		w.int(m.col)
		w.int(m.line)
		w.int(m.col + 5)
		w.int(unknownLine)
		w.int(0)
		w.int(0)
	}
	w.str(m.category)
	w.null() // secondaryLocations
	w.str("")
	if class == classAnalyzerResult {
		w.str("Dead store")
		w.int(0)
	}
}

func (w *slfWriter) bytes() []byte { return w.buf.Bytes() }

func (w *slfWriter) gzipped(t *testing.T) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	_, err := zw.Write(w.buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

// sampleLog builds a small but realistic log: one target with two compile
// steps carrying a mix of warnings, a deprecation, an error and a note.
func sampleLog() *slfWriter {
	w := newSLFWriter()
	w.int(11)
	w.section("Build MyApp", []func(){
		func() {
			w.section("Build target MyApp of project MyApp with configuration Debug", []func(){
				func() {
					w.section("Compile View.swift (in target 'MyApp' from project 'MyApp')", nil, []func(){
						func() {
							w.message(testMsg{
								title:    "variable 'x' was never used; consider replacing with '_' or removing it",
								severity: 1, kind: "com.apple.dt.IDE.diagnostic",
								url: "file:///Users/dev/MyApp/Sources/View.swift", line: 9, col: 3,
							})
						},
						func() {
							w.message(testMsg{
								title:    "'foo()' was deprecated in iOS 15.0: use bar()",
								severity: 1, kind: "com.apple.dt.IDE.diagnostic",
								url: "file:///Users/dev/MyApp/Sources/View.swift", line: 20, col: 7,
								category: "Deprecations",
								subs: []testMsg{{
									title:    "'foo()' has been explicitly marked deprecated here",
									severity: 0, kind: "com.apple.dt.IDE.diagnostic",
									url: "file:///Users/dev/MyApp/Sources/Old.swift", line: 1,
								}},
							})
						},
					})
				},
				func() {
					w.section("Compile Legacy.m (in target 'MyApp' from project 'MyApp')", nil, []func(){
						func() {
							w.message(testMsg{
								title:    "use of undeclared identifier 'q'",
								severity: 2, kind: "com.apple.dt.IDE.diagnostic",
								url: "file:///Users/dev/MyApp/Sources/Legacy.m", line: 4, col: 1,
								category: "Semantic Issue",
							})
						},
					})
				},
			}, nil)
		},
	}, nil)
	return w
}

func writeLogFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.xcactivitylog")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
