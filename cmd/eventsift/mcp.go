package main

import (
	"github.com/spf13/cobra"

	"github.com/hearthside/eventsift/internal/llm"
	"github.com/hearthside/eventsift/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	var govern bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extraction tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline(govern)
			if err != nil {
				return err
			}

			// the extract tool is only offered when a provider is usable
			var provider llm.Provider
			if pr, err := a.provider(); err == nil {
				provider = pr
			} else {
				a.log.Info().Err(err).Msg("no LLM provider; eventsift_extract disabled")
			}

			srv := mcp.NewServer(mcp.ServerConfig{
				Pipeline: p,
				Provider: provider,
				Location: a.loc,
				Now:      a.now,
				Version:  version,
			})
			return mcp.ServeStdio(srv)
		},
	}

	cmd.Flags().BoolVar(&govern, "govern", true, "Drop noise and duplicate events and cap the result size")
	return cmd
}
