package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/lifegap/internal/config"
)

// RootOptions holds global flags and the settings resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "csv"
	ConfigFile string
	Database   string

	// Config and Logger are set by the root command before any subcommand
	// runs. Commands constructed directly in tests fall back to defaults.
	Config *config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "csv"}

// NewRootCommand creates the root command for the lifegap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lifegap",
		Short: "lifegap - life expectancy gap decomposition",
		Long: `Build abridged period life tables and decompose the life expectancy gap
between two populations into additive age-group contributions using
Horiuchi's stepwise replacement algorithm.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|csv)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/lifegap/lifegap.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite run store")

	// Add subcommands
	cmd.AddCommand(NewTableCommand(opts))
	cmd.AddCommand(NewDecomposeCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// resolve loads settings with flag > env > file > default precedence and
// builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if cmd.Flags().Changed("format") && !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	v, err := config.New(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}
	for _, name := range []string{"format", "db"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return WrapExitError(ExitCommandError, ErrCodeConfig+": binding flag "+name, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}
	o.Config = cfg
	o.Format = cfg.Format
	o.Database = cfg.DB

	logger, err := newLogger(cfg.LogLevel, o.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": failed to initialize logger", err)
	}
	o.Logger = logger
	o.Logger.Debug("configuration resolved",
		zap.Int("steps", cfg.Steps),
		zap.Int("workers", cfg.Workers),
		zap.String("db", cfg.DB),
		zap.String("format", cfg.Format))
	return nil
}

// settings returns the resolved configuration or the defaults.
func (o *RootOptions) settings() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return config.Default()
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// databasePath returns the run store path from --db or the configuration.
func (o *RootOptions) databasePath() string {
	if o.Database != "" {
		return o.Database
	}
	return o.settings().DB
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
