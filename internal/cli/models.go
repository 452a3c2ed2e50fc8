package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codereviewer/internal/config"
	"github.com/dshills/codereviewer/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "anthropic",
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-opus-4-1-20250805",
			"claude-3-5-haiku-latest",
		},
	},
	{
		Provider: "openai",
		Models: []string{
			"gpt-4.1",
			"gpt-4.1-mini",
			"gpt-4o",
			"o3-mini",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-pro",
			"gemini-2.5-flash",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"qwen2.5-coder",
			"codellama",
			"deepseek-coder-v2",
			"llama3.1",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(w, "%s:\n", info.Provider)
			for _, m := range info.Models {
				fmt.Fprintf(w, "  - %s\n", m)
			}
			fmt.Fprintln(w)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		out := console(cmd.OutOrStdout())
		out.Print(fmt.Sprintf("Checking %s (%s)...", cfg.Provider, cfg.Model))

		if err := cfg.ValidateCredentials(); err != nil {
			fail(cmd, ExitRuntimeError, "FAIL: %v", err)
			return nil
		}
		engine, err := newEngine(cfg, log)
		if err != nil {
			fail(cmd, ExitRuntimeError, "FAIL: %v", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = engine.Complete(ctx, providers.Request{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fail(cmd, ExitRuntimeError, "FAIL: %v", err)
			if providers.IsAuthError(err) {
				console(cmd.ErrOrStderr()).Step("Check " + keyHint(cfg.Provider))
			}
			return nil
		}

		out.Success(fmt.Sprintf("%s is configured and responding", cfg.Provider))
		return nil
	},
}

func keyHint(provider string) string {
	if env := config.APIKeyEnv(provider); env != "" {
		return env + " or run: code-reviewer configure"
	}
	return "the local server address"
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
}
