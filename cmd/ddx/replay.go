package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/ddx/internal/render"
	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
)

// replaySource serves the capture file selected for the next run.
type replaySource struct {
	path string
}

func (r *replaySource) Open(ctx context.Context, req transport.Request) (io.ReadCloser, error) {
	return transport.FileSource{Path: r.path}.Open(ctx, req)
}

func replayCmd() *cobra.Command {
	var out outputOptions

	cmd := &cobra.Command{
		Use:   "replay GLOB...",
		Short: "Rebuild recorded feeds offline",
		Long: `Run capture files through the same reconstruction as a live run.
Patterns support ** (for example ~/.ddx/captures/**/*.sse). Files are
replayed in order on one session, which is reset between files.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			files, err := transport.ExpandCaptures(args...)
			if err != nil {
				exitOnError(err)
			}
			if len(files) == 0 {
				exitOnError(fmt.Errorf("no capture files match %v", args))
			}

			src := &replaySource{}
			sess := session.New(src)
			w := render.Stdout()

			code := exitOK
			for i, path := range files {
				if !out.json {
					if i > 0 {
						w.Line()
					}
					w.Println("▶ %s", path)
				}
				src.path = path
				req := transport.Request{InitialInfo: "replay", FullCase: path}
				if c := runSession(sess, req, out); c > code {
					code = c
				}
				if sess.State() == session.Canceled {
					break
				}
			}
			os.Exit(code)
		},
	}

	cmd.Flags().BoolVar(&out.json, "json", false, "Print each final state as JSON")
	return cmd
}
