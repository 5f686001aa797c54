package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOpenStreamsBody(t *testing.T) {
	feed := "data: 🤔 Gathering history...\ndata: Agent Name: Dr. House\n"

	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/diagnose", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(feed))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "/api/diagnose")
	assert.Equal(t, server.URL+"/api/diagnose", c.URL())

	body, err := c.Open(context.Background(), Request{InitialInfo: "45M fever", FullCase: "full", GroundTruth: "Lupus"})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, feed, string(data))
	assert.Equal(t, Request{InitialInfo: "45M fever", FullCase: "full", GroundTruth: "Lupus"}, got)
}

func TestClientOpenStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("orchestrator busy\n"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "diagnose").Open(context.Background(), Request{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Equal(t, "orchestrator busy", se.Body)
	assert.Contains(t, err.Error(), "503")
}

func TestClientHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(server.URL, "diagnose", WithHeaderTimeout(50*time.Millisecond))
	_, err := c.Open(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClientCancelAbortsRead(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: first\n"))
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	body, err := NewClient(server.URL, "diagnose", WithHeaderTimeout(time.Second)).Open(ctx, Request{})
	require.NoError(t, err)
	defer body.Close()

	<-started
	buf := make([]byte, 64)
	n, err := body.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "data: first\n", string(buf[:n]))

	cancel()
	_, err = body.Read(buf)
	assert.Error(t, err)
}

type stubHTTP struct {
	err error
}

func (s stubHTTP) Do(*http.Request) (*http.Response, error) { return nil, s.err }

func TestClientTransportFailure(t *testing.T) {
	refused := errors.New("connection refused")
	for _, opts := range [][]Option{
		{WithHTTPClient(stubHTTP{err: refused})},
		{WithHTTPClient(stubHTTP{err: refused}), WithHeaderTimeout(time.Minute)},
	} {
		c := NewClient("http://backend", "diagnose", opts...)
		_, err := c.Open(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NotContains(t, err.Error(), "no response within")
		assert.ErrorIs(t, err, refused)
		assert.False(t, errors.Is(err, context.DeadlineExceeded))
	}
}

func TestClientClosedPortKeepsNetError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewClient("http://"+addr, "diagnose").Open(context.Background(), Request{})
	require.Error(t, err)
	var opErr *net.OpError
	assert.True(t, errors.As(err, &opErr), "got %v", err)
	assert.NotContains(t, err.Error(), "no response within")
}

func TestFileSourceHonorsContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sse")
	require.NoError(t, os.WriteFile(path, []byte("data: x\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	rc, err := FileSource{Path: path}.Open(ctx, Request{})
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 4)
	n, err := rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	cancel()
	_, err = rc.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceMissing(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.sse")}.Open(context.Background(), Request{})
	assert.Error(t, err)
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestCaptureSourceTees(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.sse")
	require.NoError(t, os.WriteFile(path, []byte("data: a\ndata: b\n"), 0644))

	rec := &closeRecorder{}
	src := CaptureSource{
		Source: FileSource{Path: path},
		Create: func(context.Context) (io.WriteCloser, error) { return rec, nil },
	}

	rc, err := src.Open(context.Background(), Request{})
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "data: a\ndata: b\n", string(data))
	assert.Equal(t, "data: a\ndata: b\n", rec.String())
	assert.True(t, rec.closed)
}

func TestExpandCaptures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2026", "10"), 0755))
	for _, name := range []string{"b.sse", "a.sse", filepath.Join("2026", "10", "c.sse"), "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data: x\n"), 0644))
	}

	files, err := ExpandCaptures(filepath.Join(dir, "**", "*.sse"), filepath.Join(dir, "a.sse"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2026", "10", "c.sse"),
		filepath.Join(dir, "a.sse"),
		filepath.Join(dir, "b.sse"),
	}, files)

	literal := filepath.Join(dir, "missing.sse")
	files, err = ExpandCaptures(literal)
	require.NoError(t, err)
	assert.Equal(t, []string{literal}, files)

	_, err = ExpandCaptures("[")
	assert.Error(t, err)
}
