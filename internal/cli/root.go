package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dshills/codereviewer/internal/config"
	"github.com/dshills/codereviewer/internal/logging"
	"github.com/dshills/codereviewer/internal/output"
	"github.com/dshills/codereviewer/internal/prompts"
	"github.com/dshills/codereviewer/internal/providers"
)

const version = "0.1.0"

// Exit codes. Critical findings share the usage-error code and high
// findings share the runtime-error code.
const (
	ExitSuccess        = 0
	ExitHighIssues     = 1
	ExitRuntimeError   = 1
	ExitCriticalIssues = 2
	ExitUsageError     = 2
)

var (
	flagLogLevel  string
	flagLogFormat string
	flagProvider  string
	flagModel     string
)

var rootCmd = &cobra.Command{
	Use:   "code-reviewer",
	Short: "Review Python changes and generate tests with an LLM",
	Long: "code-reviewer reviews git changes in Python projects with static analysis and an LLM,\n" +
		"and generates unit tests that follow the project's existing test conventions.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// newEngine builds the reasoning engine for a command.
var newEngine = func(cfg config.Config, log *slog.Logger) (providers.Engine, error) {
	return providers.New(providers.Options{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Log:      log,
	})
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			return ExitRuntimeError
		}
		return ExitUsageError
	}
	return exitCode
}

// globalOverrides collects the root-level flags that override config keys.
func globalOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	if flagLogFormat != "" {
		m["logFormat"] = flagLogFormat
	}
	return m
}

// loadConfig merges the command's overrides over the global ones, validates
// the result and builds the logger it selects.
func loadConfig(cmd *cobra.Command, overrides map[string]string) (config.Config, *slog.Logger, error) {
	merged := globalOverrides()
	for k, v := range overrides {
		merged[k] = v
	}
	cfg, err := config.Load(merged)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	log := logging.New(logging.ParseLevel(cfg.LogLevel), logging.Format(cfg.LogFormat), cmd.ErrOrStderr())
	return cfg, log, nil
}

func promptLoader(cfg config.Config) *prompts.Loader {
	if cfg.PromptsDir != "" {
		return prompts.NewWithOverrides(cfg.PromptsDir)
	}
	return prompts.New()
}

func console(w io.Writer) *output.Console {
	return output.NewConsole(w)
}

// fail reports err on stderr and sets the exit code.
func fail(cmd *cobra.Command, code int, format string, args ...any) {
	console(cmd.ErrOrStderr()).Error(fmt.Sprintf(format, args...))
	exitCode = code
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print code-reviewer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "code-reviewer version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Model name")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(generateTestsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}
