package xclog

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/signal"
)

// NativeParser decodes .xcactivitylog files in-process.
type NativeParser struct {
	// IncludeNotes keeps note-severity messages, which are dropped by default.
	IncludeNotes bool
}

// Compile-time interface check.
var _ Parser = (*NativeParser)(nil)

// Name returns the backend name.
func (p *NativeParser) Name() string { return BackendNative }

// Parse reads and decodes the activity log at path. Both gzip-compressed
// logs (as Xcode writes them) and already-decompressed SLF streams are
// accepted.
func (p *NativeParser) Parse(ctx context.Context, path string) (*signal.BuildLog, error) {
	f, err := FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	r, err := maybeGunzip(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	decoded, err := Decode(contextReader{ctx: ctx, r: r}, p.IncludeNotes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// The outcome comes from the build manifest, not from the log.
	log := &signal.BuildLog{
		Path:      path,
		Title:     decoded.Title,
		Status:    signal.StatusUnknown,
		Notices:   decoded.Notices,
		Truncated: decoded.Truncated,
	}
	if decoded.Started > 0 {
		log.StartTime = deriveddata.FromReferenceDate(decoded.Started)
	}
	if decoded.Stopped > 0 {
		log.EndTime = deriveddata.FromReferenceDate(decoded.Stopped)
	}
	return log, nil
}

func maybeGunzip(br *bufio.Reader) (io.Reader, error) {
	magic, err := br.Peek(2)
	if err != nil {
		return nil, ErrNotSLF
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

// contextReader aborts long decodes when ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
