package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/codereviewer/internal/config"
)

var flagKey string

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store an API key in the config file",
	Long: `Prompt for the API key of the selected provider and save it to the
config file, which is written readable by the owner only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if flagProvider != "" {
			cfg.Provider = flagProvider
		}

		key := flagKey
		if key == "" {
			key, err = readSecret(cmd, fmt.Sprintf("%s API Key: ", providerLabel(cfg.Provider)))
			if err != nil {
				return fmt.Errorf("reading API key: %w", err)
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("API key must not be empty")
		}

		cfg.APIKey = key
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}

		out := console(cmd.OutOrStdout())
		out.Print("")
		out.Success("API key saved to: " + path)
		if env := config.APIKeyEnv(cfg.Provider); env != "" {
			out.Step(fmt.Sprintf("The %s environment variable still takes effect when the config key is unset.", env))
		}
		return nil
	},
}

// readSecret prompts on stderr and reads one line from stdin, without echo
// when stdin is a terminal.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}

func providerLabel(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	case "gemini", "google":
		return "Gemini"
	case "ollama", "lmstudio":
		return "Local provider"
	default:
		return "Anthropic"
	}
}

func init() {
	configureCmd.Flags().StringVar(&flagKey, "key", "", "API key (prompted for when omitted)")
}
