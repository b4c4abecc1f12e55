package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hearthside/eventsift/internal/config"
	"github.com/hearthside/eventsift/internal/extract"
	"github.com/hearthside/eventsift/internal/logger"
	"github.com/hearthside/eventsift/internal/temporal"
)

// app is the state shared by every subcommand, built once flags are parsed.
type app struct {
	opts config.ResolveOptions
	cfg  config.ResolvedConfig
	log  zerolog.Logger
	loc  *time.Location
	now  func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:           "eventsift",
		Short:         "Normalize AI output into calendar events and friends",
		Long:          "eventsift reads the loosely structured JSON an AI model returns for a user's text and turns it into validated events, expenses, to-dos and meals, with absolute times.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.ConfigPath, "config", "", "Config file (default: ~/.eventsift/config.yaml)")
	pf.StringVar(&a.opts.CLILLM, "llm", "", "LLM provider/model, e.g. google/gemini-2.5-flash")
	pf.StringVar(&a.opts.CLITimezone, "tz", "", "IANA timezone for reference times (default: Local)")
	pf.StringVar(&a.opts.CLILogLevel, "log-level", "", "Log level: trace, debug, info, warn, error, off")
	pf.StringVar(&a.opts.CLICurrency, "currency", "", "Currency assumed for bare expense amounts")

	root.AddCommand(
		newParseCmd(a),
		newExtractCmd(a),
		newResolveDateCmd(a),
		newMCPCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(stderr io.Writer) error {
	cfg, err := config.ResolveConfig(a.opts)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.New(logger.Options{
		Level:   cfg.LogLevel.Value,
		Format:  cfg.LogFormat.Value,
		Service: "eventsift",
		Writer:  stderr,
	})

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.loc = loc
	return nil
}

// pipeline builds an extraction pipeline from the resolved config.
func (a *app) pipeline(govern bool) (*extract.Pipeline, error) {
	durations, err := a.cfg.Durations()
	if err != nil {
		return nil, err
	}
	opts := []extract.PipelineOption{
		extract.WithLogger(logger.Named(a.log, "extract")),
		extract.WithCategoryDurations(durations),
	}
	if cur := a.cfg.DefaultCurrency.Value; cur != "" {
		opts = append(opts, extract.WithDefaultCurrency(cur))
	}
	if govern {
		opts = append(opts, extract.WithGovernor(extract.DefaultGovernorConfig()))
	}
	return extract.NewPipeline(opts...), nil
}

// reference parses a --ref value. Blank means now.
func (a *app) reference(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return a.now().In(a.loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(a.loc), nil
	}
	if t, err := time.ParseInLocation(temporal.CanonicalLayout, s, a.loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --ref %q: want RFC 3339 or %s", s, temporal.CanonicalLayout)
}

// readInput returns the joined args, or all of stdin when args is empty
// or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

// readSource returns the contents of path, or stdin for "" and "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		return readInput(cmd, nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventsift %s\n", version)
		},
	}
}
