package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthside/eventsift/internal/extract"
	"github.com/hearthside/eventsift/internal/llm"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		kind, ref, format string
		stream, govern    bool
	)

	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Send text to the configured LLM and normalize its answer",
		Example: `  eventsift extract "dinner with Sam next friday at 7"
  echo "午餐吃了牛肉麵 150元" | eventsift extract --kind expenses --stream`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := extract.ParseKind(kind)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no input text")
			}
			t, err := a.reference(ref)
			if err != nil {
				return err
			}
			provider, err := a.provider()
			if err != nil {
				return err
			}
			p, err := a.pipeline(govern)
			if err != nil {
				return err
			}

			var progress func(string)
			if stream {
				stderr := cmd.ErrOrStderr()
				progress = func(delta string) { fmt.Fprint(stderr, delta) }
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			raw, err := extract.Request(ctx, provider, k, text, t, progress)
			if stream {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			a.log.Debug().Str("provider", provider.Name()).Int("response_len", len(raw)).Msg("model responded")

			return writeEnvelope(cmd.OutOrStdout(), p.Process(k, raw, text, t), format, t)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&kind, "kind", "k", "events", "Record kind: events, expenses, todos, meals")
	f.StringVar(&ref, "ref", "", "Reference time, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)")
	f.StringVarP(&format, "format", "f", formatJSON, "Output format: json or ics")
	f.BoolVar(&stream, "stream", false, "Show the model's response on stderr as it arrives")
	f.BoolVar(&govern, "govern", true, "Drop noise and duplicate events and cap the result size")
	return cmd
}

// provider builds the LLM provider named by the resolved config.
func (a *app) provider() (llm.Provider, error) {
	pc, err := llm.ParseLLMFlag(a.cfg.LLMProvider.Value)
	if err != nil {
		return nil, err
	}
	pc.APIKey = a.cfg.APIKeyForProvider(pc.Provider).Value
	return llm.NewProvider(pc)
}
