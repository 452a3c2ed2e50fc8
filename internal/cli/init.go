package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var gitignoreEntries = []string{
	"# Code Reviewer",
	".code-reviewer-cache/",
	"review_*.txt",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize code-reviewer in the current directory",
	Long:  "Creates the tests/ directory and adds code-reviewer entries to .gitignore.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := console(cmd.OutOrStdout())
		out.Heading("🚀 Initializing Code Reviewer")

		created, err := ensureTestsDir("tests")
		if err != nil {
			return err
		}
		if created {
			out.Success("Created tests/ directory")
		} else {
			out.Info("tests/ directory already exists")
		}

		action, err := ensureGitignore(".gitignore")
		if err != nil {
			return err
		}
		switch action {
		case gitignoreCreated:
			out.Success("Created .gitignore")
		case gitignoreUpdated:
			out.Success("Updated .gitignore")
		default:
			out.Info(".gitignore already configured")
		}

		out.Print("")
		out.Success("Initialization complete!")
		out.Print("\nNext steps:")
		out.Print("  1. Set your API key: export ANTHROPIC_API_KEY='your-key' (or run: code-reviewer configure)")
		out.Print("  2. Review changes: code-reviewer review")
		out.Print("  3. Generate tests: code-reviewer generate-tests <file>")
		return nil
	},
}

func ensureTestsDir(dir string) (bool, error) {
	if _, err := os.Stat(dir); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "__init__.py"), nil, 0o644); err != nil {
		return false, fmt.Errorf("creating package marker: %w", err)
	}
	return true, nil
}

type gitignoreAction int

const (
	gitignoreConfigured gitignoreAction = iota
	gitignoreCreated
	gitignoreUpdated
)

// ensureGitignore adds the entries unless a previous run already did.
func ensureGitignore(path string) (gitignoreAction, error) {
	block := strings.Join(gitignoreEntries, "\n") + "\n"
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte(block), 0o644); err != nil {
			return 0, fmt.Errorf("creating %s: %w", path, err)
		}
		return gitignoreCreated, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.Contains(string(existing), "Code Reviewer") {
		return gitignoreConfigured, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString("\n" + block); err != nil {
		f.Close()
		return 0, fmt.Errorf("updating %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("updating %s: %w", path, err)
	}
	return gitignoreUpdated, nil
}
