package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/ddx/internal/logging"
	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(session.View{State: session.Completed}, nil))
	assert.Equal(t, exitCanceled, exitCode(session.View{State: session.Canceled}, nil))
	assert.Equal(t, exitFailure, exitCode(session.View{State: session.Failed}, errors.New("reset")))
	assert.Equal(t, exitFailure, exitCode(session.View{State: session.Idle}, errors.New("invalid")))
}

type stringSource string

func (s stringSource) Open(context.Context, transport.Request) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

func TestCaptureToNamesFileBySession(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	src := captureTo(stringSource("data: ✅ done\n"), dir)

	ctx := logging.WithSessionID(context.Background(), "01J9CAPTURE")
	rc, err := src.Open(ctx, transport.Request{})
	require.NoError(t, err)
	_, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	data, err := os.ReadFile(filepath.Join(dir, "01J9CAPTURE.sse"))
	require.NoError(t, err)
	assert.Equal(t, "data: ✅ done\n", string(data))
}

func TestReplaySourceFollowsPath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.sse")
	b := filepath.Join(dir, "b.sse")
	require.NoError(t, os.WriteFile(a, []byte("data: ✅ first\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("data: Agent Name: Dr. Chase\ndata: second\n"), 0644))

	src := &replaySource{}
	sess := session.New(src, session.WithLogger(logging.New("session").WithOutput(io.Discard)))
	req := transport.Request{InitialInfo: "replay", FullCase: "x"}

	src.path = a
	view, err := sess.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, view.Turns, 1)
	assert.Equal(t, "✅ first", view.Turns[0].StatusText)

	src.path = b
	view, err = sess.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, view.Turns, 1)
	assert.Equal(t, "Dr. Chase", view.Turns[0].AgentName)
}
