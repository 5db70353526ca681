// Package xclogtest encodes small build logs in Xcode's SLF format for tests.
package xclogtest

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// NoLine marks an unset line or column in an SLF location.
const NoLine = ^uint64(0)

// logWriter encodes the subset of SLF that Xcode writes for build logs:
// nested sections holding diagnostic messages.
type logWriter struct {
	buf     bytes.Buffer
	classes map[string]int
}

func newLogWriter() *logWriter {
	w := &logWriter{classes: make(map[string]int)}
	w.buf.WriteString("SLF0")
	w.int(11)
	return w
}

func (w *logWriter) int(n uint64) { fmt.Fprintf(&w.buf, "%d#", n) }
func (w *logWriter) str(s string) { fmt.Fprintf(&w.buf, "%d\"%s", len(s), s) }
func (w *logWriter) null()        { w.buf.WriteByte('-') }
func (w *logWriter) list(n int)   { fmt.Fprintf(&w.buf, "%d(", n) }

func (w *logWriter) double(f float64) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(f))
	w.buf.WriteString(hex.EncodeToString(raw))
	w.buf.WriteByte('^')
}

func (w *logWriter) class(name string) {
	if idx, ok := w.classes[name]; ok {
		fmt.Fprintf(&w.buf, "%d@", idx)
		return
	}
	w.classes[name] = len(w.classes) + 1
	fmt.Fprintf(&w.buf, "%d%%%s", len(name), name)
}

// Diag is one diagnostic written into a step section. Severity follows
// Xcode: 1 warning, 2 error.
type Diag struct {
	Title    string
	Severity uint64
	Path     string
	Line     uint64
	Category string
}

// Step is a compile step section and the diagnostics it emitted.
type Step struct {
	Title string
	Diags []Diag
}

// section writes an IDEActivityLogSection holding subs and diags.
func (w *logWriter) section(title string, subs []func(), diags []Diag) {
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
	if len(diags) == 0 {
		w.null()
	} else {
		w.list(len(diags))
		for _, d := range diags {
			w.message(d)
		}
	}
	w.int(0)
	w.int(0)
	w.int(0)
	w.str("")
	w.null()
	w.str("")
	w.str("S-0001")
	w.str("Succeeded")
	w.str("")
	w.null()
}

func (w *logWriter) message(d Diag) {
	w.class("IDEDiagnosticActivityLogMessage")
	w.str(d.Title)
	w.str(d.Title)
	w.double(700000001)
	w.int(NoLine)
	w.int(NoLine)
	w.null()
	w.int(d.Severity)
	w.str("com.apple.dt.IDE.diagnostic")
	w.class("DVTTextDocumentLocation")
	w.str("file://" + d.Path)
	w.double(0)
	w.int(d.Line)
	w.int(1)
	w.int(d.Line)
	w.int(6)
	w.int(NoLine)
	w.int(0)
	w.int(0)
	w.str(d.Category)
	w.null()
	w.str("")
}

// BuildLog encodes a gzipped log for target with the given steps.
func BuildLog(t testing.TB, target string, steps []Step) []byte {
	t.Helper()
	w := newLogWriter()
	subs := make([]func(), 0, len(steps))
	for _, s := range steps {
		subs = append(subs, func() { w.section(s.Title, nil, s.Diags) })
	}
	targetTitle := fmt.Sprintf("Build target %s of project %s with configuration Debug", target, target)
	w.section("Build "+target, []func(){
		func() { w.section(targetTitle, subs, nil) },
	}, nil)

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	_, err := zw.Write(w.buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}
