package terminal

import (
	"io"
	"os"

	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/aws-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/aws-atlas/pkg/services/config"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI represents the command-line interface
type CLI struct {
	viper    *viper.Viper
	emitters emitters.Registry
	reporter *export.Reporter
	connect  commands.AWSSourceFactory
	errOut   io.Writer
	rootCmd  *cobra.Command

	configPath string
	verbose    bool
}

// Options contain configuration for the CLI
type Options struct {
	Emitters  emitters.Registry
	AWSSource commands.AWSSourceFactory
	Output    io.Writer
	ErrOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Emitters == nil {
		opts.Emitters = emitters.Default()
	}
	if opts.AWSSource == nil {
		opts.AWSSource = pipeline.NewAWSSource
	}

	cli := &CLI{
		viper:    config.NewViper(),
		emitters: opts.Emitters,
		reporter: export.NewReporter(opts.Output),
		connect:  opts.AWSSource,
		errOut:   opts.ErrOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.ErrOutput)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides os.Args, for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "awsdiagram",
		Short:             "AWS architecture diagram generator",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}

	cmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Config file (default is $HOME/.awsdiagram.yaml)")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")
	_ = cli.viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(commands.NewGenerateCmd(cli.viper, cli.emitters, cli.reporter, cli.connect))
	cmd.AddCommand(commands.NewProfilesCmd(cli.reporter))
	cmd.AddCommand(commands.NewKindsCmd(cli.reporter))
	cmd.AddCommand(commands.NewRunsCmd(cli.reporter))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	if err := config.ReadConfigFile(cli.viper, cli.configPath); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if cli.viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.errOut}).Level(level).With().Timestamp().Logger()
	if used := cli.viper.ConfigFileUsed(); used != "" {
		logger.Debug().Str("path", used).Msg("config file loaded")
	}

	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}
