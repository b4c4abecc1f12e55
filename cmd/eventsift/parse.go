package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthside/eventsift/internal/extract"
	"github.com/hearthside/eventsift/internal/ics"
	"github.com/hearthside/eventsift/internal/logger"
	"github.com/hearthside/eventsift/internal/model"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		kind, input, ref, format string
		preview                  int
		govern, fromICS          bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Normalize a raw AI response read from a file or stdin",
		Long: `Normalize a raw AI response into records.

The response may be fenced JSON, prose around JSON, or no JSON at all; in
the last case a best-effort record is built from --input. The result is an
envelope with records, a summary and a confidence score.`,
		Example: `  eventsift parse reply.txt --input "gym tomorrow 7am"
  cat reply.txt | eventsift parse --kind todos
  eventsift parse reply.txt --format ics > events.ics
  eventsift parse events.ics --from-ics --preview 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := extract.ParseKind(kind)
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readSource(cmd, path)
			if err != nil {
				return err
			}
			t, err := a.reference(ref)
			if err != nil {
				return err
			}

			var env any
			if fromICS {
				if k != extract.KindEvents {
					return fmt.Errorf("--from-ics reads events only")
				}
				if env, err = a.importICS(raw); err != nil {
					return err
				}
			} else {
				p, err := a.pipeline(govern)
				if err != nil {
					return err
				}
				env = p.Process(k, raw, input, t)
			}
			if err := writeEnvelope(cmd.OutOrStdout(), env, format, t); err != nil {
				return err
			}
			return writePreview(cmd.ErrOrStderr(), env, preview)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&kind, "kind", "k", "events", "Record kind: events, expenses, todos, meals")
	f.StringVarP(&input, "input", "i", "", "The user's original text (context and fallback material)")
	f.StringVar(&ref, "ref", "", "Reference time, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)")
	f.StringVarP(&format, "format", "f", formatJSON, "Output format: json or ics")
	f.IntVar(&preview, "preview", 0, "Print the next N occurrences of recurring events to stderr")
	f.BoolVar(&govern, "govern", true, "Drop noise and duplicate events and cap the result size")
	f.BoolVar(&fromICS, "from-ics", false, "Read the source as an iCalendar document instead of an AI response")
	return cmd
}

// importICS reads the VEVENTs of an iCalendar document into an events
// envelope, so exported calendars can be previewed or converted back to JSON.
func (a *app) importICS(raw string) (model.Envelope[model.NormalizedEvent], error) {
	events, err := ics.Parse([]byte(raw), logger.Named(a.log, "ics"))
	if err != nil {
		return model.Envelope[model.NormalizedEvent]{}, err
	}
	return model.Envelope[model.NormalizedEvent]{
		Records:    events,
		Summary:    fmt.Sprintf("Imported %d events from iCalendar", len(events)),
		Confidence: 1,
		Stage:      model.StageDone,
	}, nil
}
