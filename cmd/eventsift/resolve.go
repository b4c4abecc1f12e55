package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthside/eventsift/internal/temporal"
)

func newResolveDateCmd(a *app) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "resolve-date <text...>",
		Short: "Resolve a date/time expression to an absolute local time",
		Example: `  eventsift resolve-date "明天下午3點"
  eventsift resolve-date next friday --ref "2024-01-01 10:00:00"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			t, err := a.reference(ref)
			if err != nil {
				return err
			}
			r, err := temporal.Accept(text, t)
			if err != nil {
				return fmt.Errorf("cannot resolve %q: %s", text, temporal.ReasonOf(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", temporal.Format(r.Time), r.Rule)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Reference time, RFC 3339 or 'YYYY-MM-DD HH:MM:SS' (default: now)")
	return cmd
}
