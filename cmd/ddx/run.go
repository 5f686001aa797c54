package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/ddx/internal/config"
	"github.com/joss/ddx/internal/logging"
	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
)

func runCmd() *cobra.Command {
	var (
		initialInfo string
		caseText    string
		caseFile    string
		groundTruth string
		backend     string
		chunkSize   int
		capture     bool
		out         outputOptions
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a diagnosis run and follow it to the end",
		Long: `Send a case to the orchestration backend and reconstruct the streamed
agent conversation. Exits 1 on failure and 130 when stopped.`,
		Example: `  ddx run --initial-info "45M, fever" --case-file case.txt --tui
  ddx run --initial-info "45M, fever" --case "..." --json --capture`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if caseFile != "" {
				data, err := os.ReadFile(caseFile)
				if err != nil {
					exitOnError(fmt.Errorf("read case file: %w", err))
				}
				caseText = string(data)
			}
			req := transport.Request{InitialInfo: initialInfo, FullCase: caseText, GroundTruth: groundTruth}

			env := config.Env()
			if backend == "" {
				backend = env.BackendURL
			}
			client := transport.NewClient(backend, env.Endpoint,
				transport.WithHeaderTimeout(env.ConnectTimeout))
			logging.New("cli").Debug("backend", map[string]interface{}{"url": client.URL()})

			var src transport.Source = client
			if capture {
				src = captureTo(src, env.CaptureDir)
			}

			opts := []session.Option{session.WithChunkSize(chunkSize)}
			if out.tui {
				os.Exit(runTUI(src, req, opts...))
			}
			os.Exit(runSession(session.New(src, opts...), req, out))
		},
	}

	cmd.Flags().StringVar(&initialInfo, "initial-info", "", "Initial presentation of the case (required)")
	cmd.Flags().StringVar(&caseText, "case", "", "Full case text")
	cmd.Flags().StringVar(&caseFile, "case-file", "", "Read the full case from a file")
	cmd.Flags().StringVar(&groundTruth, "ground-truth", "", "Known diagnosis, forwarded for evaluation")
	cmd.Flags().StringVar(&backend, "backend", "", "Backend base URL (default $DDX_BACKEND_URL)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Read buffer size in bytes (default $DDX_CHUNK_SIZE)")
	cmd.Flags().BoolVar(&capture, "capture", false, "Record the raw feed under $DDX_CAPTURE_DIR")
	cmd.Flags().BoolVar(&out.tui, "tui", false, "Follow the run in the live terminal view")
	cmd.Flags().BoolVar(&out.json, "json", false, "Print the final state as JSON")
	cmd.MarkFlagsMutuallyExclusive("case", "case-file")
	cmd.MarkFlagsMutuallyExclusive("tui", "json")

	return cmd
}
