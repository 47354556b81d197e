package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/integration"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Options configures traversal and output.
type Options struct {
	// Path is the directory to analyze.
	Path string
	// Strategy selects the traversal source (parallel or sequential).
	Strategy string
	// Workers is the number of parallel workers (0=number of CPUs).
	Workers int
	// Depth is the number of levels shown below the root.
	Depth int
	// Top is the number of largest children shown per directory (0=all).
	Top int
	// Tick is the time slice between progress updates.
	Tick time.Duration
	// Verify cross-checks the tree against a flat census walk.
	Verify bool
	// Debug indicates whether debug output is enabled.
	Debug bool
	// LogFile sends log output to a rotating file.
	LogFile string
	// Output represents output format (table, json, yaml or paths).
	Output string
}

//nolint:gochecknoglobals // Config constants
var (
	allowedOutputs    = []string{"table", "json", "yaml", "paths"}
	allowedStrategies = []string{"parallel", "sequential"}
)

// envPrefix is the prefix of environment variables overriding flags.
const envPrefix = "DUTREE"

func help(cmd *cobra.Command, _ []string) {
	//nolint:forbidigo // Help output to console
	fmt.Println(heredoc.Doc(`
		dutree computes recursive disk usage: size, files, directories and other
		entries for every directory below a path.

		Usage:

			dutree [flags] [path]

		Positional Arguments:
		  path                   Directory to analyze. Defaults to current directory if not specified.

		Every flag can also be set through the environment, e.g. DUTREE_DEPTH=2,
		or through a YAML file passed with --config.

		The '-i' flag outputs a zsh function which pipes '--output paths' into 'fzf'
		and changes into the selected directory.

		Flags:
	`))
	fmt.Print(cmd.Flags().FlagUsages()) //nolint:forbidigo // Help output to console
}

// Command builds the root cobra command.
func (c CLI) Command() *cobra.Command {
	var (
		configFile  string
		version     bool
		initScript  bool
		cfg         = viper.New()
		commandLine = &cobra.Command{
			Use:           "dutree [flags] [path]",
			Args:          cobra.MaximumNArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
		}
	)

	flags := commandLine.Flags()
	flags.SortFlags = false

	flags.StringP("strategy", "s", "parallel", "Traversal strategy: parallel or sequential")
	flags.IntP("workers", "w", 0, "Number of parallel workers (0=number of CPUs)")
	flags.IntP("depth", "d", 1, "Number of levels to display below the root")
	flags.IntP("top", "t", 10, "Number of largest entries to display per directory (0=all)")
	flags.StringP("output", "o", "table", "Output format: table, json, yaml or paths")
	flags.Duration("tick", du.DefaultTick, "Interval between progress updates")
	flags.Bool("verify", false, "Cross-check totals with an independent walk")
	flags.Bool("debug", false, "Enable debug output")
	flags.String("log-file", "", "Write logs to a rotating file")
	flags.StringVar(&configFile, "config", "", "YAML file with flag defaults")
	flags.BoolVarP(&version, "version", "v", false, "Show version and exit")
	flags.BoolVarP(&initScript, "init", "i", false, "Output init script for shell usage")

	commandLine.SetHelpFunc(help)

	commandLine.RunE = func(cmd *cobra.Command, args []string) error {
		if version {
			//nolint:forbidigo // Version output to console
			fmt.Println(c.version)

			return nil
		}

		if initScript {
			rendered, err := integration.Render()
			if err != nil {
				return fmt.Errorf("rendering integration script: %w", err)
			}

			//nolint:forbidigo // Integration script output to console
			fmt.Println(rendered)

			return nil
		}

		options, err := load(cfg, cmd.Flags(), configFile)
		if err != nil {
			return err
		}

		options.Path = "."
		if len(args) > 0 {
			options.Path = args[0]
		}

		return logic(cmd.Context(), options)
	}

	return commandLine
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return c.Command().Execute()
}

// load resolves options from flags, environment and an optional config file, in that order of precedence.
func load(cfg *viper.Viper, flags *pflag.FlagSet, configFile string) (Options, error) {
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	if err := cfg.BindPFlags(flags); err != nil {
		return Options{}, fmt.Errorf("binding flags: %w", err)
	}

	if configFile != "" {
		cfg.SetConfigFile(configFile)

		if err := cfg.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("reading config %q: %w", configFile, err)
		}
	}

	options := Options{
		Strategy: cfg.GetString("strategy"),
		Workers:  cfg.GetInt("workers"),
		Depth:    cfg.GetInt("depth"),
		Top:      cfg.GetInt("top"),
		Tick:     cfg.GetDuration("tick"),
		Verify:   cfg.GetBool("verify"),
		Debug:    cfg.GetBool("debug"),
		LogFile:  cfg.GetString("log-file"),
		Output:   strings.ToLower(cfg.GetString("output")),
	}

	return options, options.validate()
}

// validate checks option ranges and enumerations.
func (o Options) validate() error {
	if !slices.Contains(allowedOutputs, o.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowedOutputs)
	}

	if !slices.Contains(allowedStrategies, o.Strategy) {
		return fmt.Errorf("invalid strategy %q: must be one of %v", o.Strategy, allowedStrategies)
	}

	if o.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if o.Top < 0 {
		return errors.New("top cannot be negative")
	}

	if o.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	return nil
}
