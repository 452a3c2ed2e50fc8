package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codereviewer/internal/diffread"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show repository status and configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		out := console(cmd.OutOrStdout())

		out.Heading("📊 Code Reviewer Status")
		out.Print("")
		out.Heading("Configuration:")
		out.Print("  Provider: " + cfg.Provider)
		out.Print("  Model: " + cfg.Model)
		out.Print("  Review Strictness: " + cfg.Strictness)
		out.Print("  Test Framework: " + cfg.TestFramework)
		if cfg.HasAPIKey() {
			out.Print("  API Key: ✅ Set")
		} else {
			out.Print("  API Key: ❌ Not set")
		}
		out.Print("")

		ctx := cmd.Context()
		reader, err := diffread.Open(ctx, ".", log)
		if errors.Is(err, diffread.ErrInvalidRepository) {
			out.Error("Git Repository: Not in a git repository")
			return nil
		}
		var info diffread.Info
		if err == nil {
			info, err = reader.RepositoryInfo(ctx)
		}
		if err != nil {
			out.Warn(fmt.Sprintf("Git Repository: Error: %v", err))
			return nil
		}

		out.Heading("Git Repository:")
		out.Print("  Path: " + info.Root)
		out.Print("  Branch: " + info.Branch)
		out.Print("  HEAD: " + info.Head)
		if info.Dirty {
			out.Print("  Dirty: Yes")
		} else {
			out.Print("  Dirty: No")
		}
		if len(info.Untracked) > 0 {
			out.Print(fmt.Sprintf("  Untracked files: %d", len(info.Untracked)))
		}
		return nil
	},
}
