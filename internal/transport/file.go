package transport

import (
	"context"
	"fmt"
	"io"
	"os"
)

// FileSource replays a captured feed from disk. The request is ignored.
type FileSource struct {
	Path string
}

// Open opens the capture file. Reads fail with ctx.Err() once ctx is done.
func (f FileSource) Open(ctx context.Context, _ Request) (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return &ctxReader{ctx: ctx, rc: file}, nil
}

type ctxReader struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *ctxReader) Close() error {
	return r.rc.Close()
}

// Capture tees everything read from rc into w. Closing the result closes rc
// and, if it is an io.Closer, w.
func Capture(rc io.ReadCloser, w io.Writer) io.ReadCloser {
	return &captureReader{Reader: io.TeeReader(rc, w), rc: rc, w: w}
}

type captureReader struct {
	io.Reader
	rc io.ReadCloser
	w  io.Writer
}

func (c *captureReader) Close() error {
	err := c.rc.Close()
	if wc, ok := c.w.(io.Closer); ok {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// CaptureSource wraps a Source so every opened stream is also written to the
// writer returned by Create. Create receives the Open context, which carries
// the session ID when opened by a session.
type CaptureSource struct {
	Source Source
	Create func(ctx context.Context) (io.WriteCloser, error)
}

// Open opens the inner source and starts capturing.
func (c CaptureSource) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	rc, err := c.Source.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	w, err := c.Create(ctx)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("create capture: %w", err)
	}
	return Capture(rc, w), nil
}

var (
	_ Source = FileSource{}
	_ Source = CaptureSource{}
)
