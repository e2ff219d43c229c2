package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loanguard/billcheck/internal/buildinfo"
)

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	logOut io.Writer
	logger *slog.Logger
}

// configureLogger builds the logger from the flags, falling back to cfgLevel
// and cfgFormat for flags left empty.
func (o *globalOptions) configureLogger(cfgLevel, cfgFormat string) error {
	level, format := o.logLevel, o.logFormat
	if level == "" {
		level = cfgLevel
	}
	if format == "" {
		format = cfgFormat
	}
	logger, err := newLogger(o.logOut, level, format)
	if err != nil {
		return err
	}
	o.logger = logger
	return nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "billcheck",
		Short:   "Risk assessment of loan proof-of-purchase bills",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logOut = cmd.ErrOrStderr()
			return opts.configureLogger("warn", "text")
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to billcheck.yaml (default <repo>/billcheck.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config, else warn)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: text or json (default from config, else text)")

	rootCmd.AddCommand(
		newInitCommand(),
		newExtractCommand(opts),
		newScoreCommand(opts),
		newCompareCommand(opts),
		newBatchCommand(opts),
		newLoansCommand(opts),
	)

	return rootCmd
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}
