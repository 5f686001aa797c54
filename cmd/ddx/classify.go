package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/ddx/internal/feed"
	"github.com/joss/ddx/internal/render"
)

func classifyCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify feed lines read from stdin",
		Long: `Print how each line of a raw feed would be interpreted: ignored,
differential, agent, status, content or empty.`,
		Example: `  cat ~/.ddx/captures/01J9.sse | ddx classify`,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			r := render.New(pretty, 0)
			w := render.Stdout()

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				c := feed.Classify(scanner.Text())
				if !all && c.Kind == feed.KindIgnored {
					continue
				}
				w.Block(r.Classification(c))
			}
			if err := scanner.Err(); err != nil {
				exitOnError(err)
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also print ignored lines")
	return cmd
}
