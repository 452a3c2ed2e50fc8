package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> code-reviewer pre-commit hook >>>"
	hookMarkerEnd   = "# <<< code-reviewer pre-commit hook <<<"
)

var (
	hookStrictness string
	hookBlockHigh  bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install code-reviewer as a git pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}

		section := generateHookScript(hookStrictness, hookBlockHigh)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fail(cmd, ExitRuntimeError, "Error reading hook file: %v", err)
			return nil
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "Error creating hooks directory: %v", err)
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "Error writing hook file: %v", err)
			return nil
		}

		console(cmd.OutOrStdout()).Success("Installed code-reviewer pre-commit hook at " + hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove code-reviewer pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fail(cmd, ExitRuntimeError, "%v", err)
			return nil
		}
		out := console(cmd.OutOrStdout())

		existing, err := os.ReadFile(hookPath)
		if errors.Is(err, fs.ErrNotExist) {
			out.Info("No pre-commit hook found.")
			return nil
		}
		if err != nil {
			fail(cmd, ExitRuntimeError, "Error reading hook file: %v", err)
			return nil
		}

		content := removeHookSection(string(existing))

		// Only a shebang left: the hook was ours alone.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fail(cmd, ExitRuntimeError, "Error removing hook file: %v", err)
				return nil
			}
			out.Success("Removed code-reviewer pre-commit hook at " + hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(cmd, ExitRuntimeError, "Error writing hook file: %v", err)
			return nil
		}
		out.Success("Removed code-reviewer section from " + hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-commit"), nil
}

// generateHookScript blocks the commit when the review exits with 2, or
// with 1 as well when blockHigh is set.
func generateHookScript(strictness string, blockHigh bool) string {
	threshold := 2
	if blockHigh {
		threshold = 1
	}
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "code-reviewer review --staged --strictness %s\n", strictness)
	b.WriteString("CODE_REVIEWER_EXIT=$?\n")
	fmt.Fprintf(&b, "if [ $CODE_REVIEWER_EXIT -ge %d ]; then\n", threshold)
	b.WriteString("  echo \"code-reviewer: blocking issues found, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookStrictness, "strictness", "harsh", "Review strictness (normal, harsh, strict)")
	hookInstallCmd.Flags().BoolVar(&hookBlockHigh, "block-high", false, "Also block commits with high severity issues")
}
