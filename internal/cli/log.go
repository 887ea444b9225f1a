package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/layout"
	"twiggy.dev/twiggy/internal/output"
)

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "log",
		Short:   "Show the commit graph with lanes and ref labels",
		Aliases: []string{"l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			res := layout.Layout(s.graph, nil)
			for _, line := range output.RenderGraph(s.graph, res) {
				s.splog.Info("%s", line)
			}
			return nil
		},
	}

	return cmd
}
