package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/joss/ddx/internal/config"
	"github.com/joss/ddx/internal/logging"
	"github.com/joss/ddx/internal/render"
	"github.com/joss/ddx/internal/runtime"
	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
	"github.com/joss/ddx/internal/tui"
)

// Process exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitCanceled = 130
)

// outputOptions selects how a finished run is printed.
type outputOptions struct {
	json bool
	tui  bool
}

// exitOnError prints err to stderr and exits with the failure code.
func exitOnError(err error) {
	render.Stderr().Println("Error: %v", err)
	os.Exit(exitFailure)
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// exitCode maps a finished view to the process exit code.
func exitCode(v session.View, err error) int {
	switch {
	case v.State == session.Canceled:
		return exitCanceled
	case err != nil || v.State == session.Failed:
		return exitFailure
	default:
		return exitOK
	}
}

// captureTo wraps src so each stream is recorded as <dir>/<session id>.sse.
func captureTo(src transport.Source, dir string) transport.Source {
	return transport.CaptureSource{
		Source: src,
		Create: func(ctx context.Context) (io.WriteCloser, error) {
			if err := config.EnsureDir(dir); err != nil {
				return nil, err
			}
			name := logging.SessionIDFromContext(ctx)
			if name == "" {
				name = logging.NewTraceID()
			}
			return os.Create(filepath.Join(dir, name+".sse"))
		},
	}
}

// runSession drives one run on sess and prints its result. Signals cancel the
// run; the session is waited for before the process exits.
func runSession(sess *session.Session, req transport.Request, out outputOptions) int {
	shutdown := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
	stop := shutdown.ListenForSignals()
	defer stop()

	shutdown.Register("session", func(ctx context.Context) error {
		sess.Cancel()
		_, err := sess.Wait(ctx)
		if ctx.Err() != nil {
			return err
		}
		return nil
	})

	view, err := sess.Run(shutdown.Context(), req)
	if session.IsValidation(err) {
		exitOnError(err)
	}
	reportSignal(shutdown)
	printView(view, out)
	return exitCode(view, err)
}

// runTUI drives one run in the live terminal view.
func runTUI(src transport.Source, req transport.Request, opts ...session.Option) int {
	if err := session.Validate(req); err != nil {
		exitOnError(err)
	}

	shutdown := runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
	stop := shutdown.ListenForSignals()
	defer stop()

	// Logs on stderr would draw over the alt screen.
	opts = append(opts, session.WithLogger(logging.New("session").WithOutput(io.Discard)))

	view, err := tui.Run(shutdown.Context(), src, req, opts...)
	if err != nil && view.State != session.Failed && view.State != session.Canceled {
		exitOnError(err)
	}
	reportSignal(shutdown)
	printView(view, outputOptions{})
	return exitCode(view, err)
}

// reportSignal notes on stderr that a signal, not the backend, ended the run.
func reportSignal(m *runtime.ShutdownManager) {
	if m.Signaled() {
		render.Stderr().Println("Interrupted by signal")
	}
}

func printView(v session.View, out outputOptions) {
	if out.json {
		data, err := render.JSON(v)
		if err != nil {
			exitOnError(err)
		}
		render.Stdout().Block(string(data) + "\n")
		return
	}
	render.Stdout().Block(render.New(pretty, terminalWidth()).Transcript(v))
}
