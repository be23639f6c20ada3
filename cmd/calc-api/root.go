package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/config"
	"github.com/lex00/calc-api-go/internal/logging"
	"github.com/lex00/calc-api-go/internal/stack"
	"github.com/lex00/calc-api-go/stacks"
)

// defaultStack is used by commands given no stack name.
const defaultStack = "api"

// app holds what every command needs once flags are parsed.
type app struct {
	configDir string
	stage     string
	debug     bool

	cfg *config.Config
	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "calc-api",
		Short: "Synthesize the calculate API stacks into CloudFormation",
		Long: `calc-api declares an HTTP API whose routes invoke the calculate function
and synthesizes it into a CloudFormation template.

The declared stacks are compiled in:

    api            GET /calculate -> calculate (provided.al2, tracing Active)
    api-variants   api plus container and container Dart routes

Generate a template:

    calc-api build api -o template.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "Directory holding calc-api.toml and .env")
	rootCmd.PersistentFlags().StringVar(&a.stage, "stage", "", "Deployment stage (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newBuildCmd(a),
		newListCmd(a),
		newValidateCmd(a),
		newGraphCmd(a),
		newDiffCmd(a),
		newOutputsCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// load reads configuration and sets up logging.
func (a *app) load() error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if a.stage != "" {
		if err := cfg.SetStage(a.stage); err != nil {
			return fmt.Errorf("--stage: %w", err)
		}
	}
	a.cfg = cfg
	if a.log != nil {
		// Reloads replace the logger; flush the old one first.
		_ = a.log.Sync()
	}
	a.log = logging.New(a.debug || cfg.Debug)
	a.log.Debugw("config loaded", "dir", a.configDir, "env", cfg.Env(), "stage", cfg.Stage)
	return nil
}

// stackOptions maps configuration onto stack options.
func (a *app) stackOptions() []stack.Option {
	cfg := a.cfg
	return []stack.Option{
		stack.WithStage(cfg.Stage),
		stack.WithDescription("calculate API (" + cfg.Stage + ")"),
		stack.WithArtifactBucket(cfg.Artifacts.Bucket),
		stack.WithSetting(stacks.SettingCalculateAsset, cfg.Artifacts.CalculateAsset),
		stack.WithSetting(stacks.SettingContainerImage, cfg.Artifacts.ContainerImage),
		stack.WithSetting(stacks.SettingDartImage, cfg.Artifacts.DartImage),
		stack.WithFunctionDefaults(stack.FunctionDefaults{
			MemorySize: cfg.Function.MemorySize,
			Timeout:    cfg.Function.TimeoutDuration(),
			Tracing:    stack.Tracing(cfg.Function.Tracing),
		}),
	}
}

// buildStack runs the named stack definition.
func (a *app) buildStack(name string) (*stack.Stack, error) {
	s, err := stack.Build(name, a.stackOptions()...)
	if err != nil {
		return nil, err
	}
	a.log.Debugw("stack declared", "stack", name, "functions", len(s.Functions()), "apis", len(s.Apis()))
	return s, nil
}

// synth declares and synthesizes the named stack.
func (a *app) synth(name string) (*stack.Stack, *calcapi.Template, error) {
	s, err := a.buildStack(name)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := s.Synth()
	if err != nil {
		return nil, nil, err
	}
	a.log.Debugw("stack synthesized", "stack", name, "resources", len(tmpl.Resources), "parameters", len(tmpl.Parameters))
	return s, tmpl, nil
}

// stackArg returns the stack named in args, or the default stack.
func stackArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultStack
}

// completeStacks offers the registered stack names for shell completion.
func completeStacks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return stack.Names(), cobra.ShellCompDirectiveNoFileComp
}

func unknownFormat(format string, want ...string) error {
	return fmt.Errorf("unknown format: %s (use %v)", format, want)
}
