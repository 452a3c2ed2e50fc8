package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codereviewer/internal/config"
	"github.com/dshills/codereviewer/internal/diffread"
	"github.com/dshills/codereviewer/internal/output"
	"github.com/dshills/codereviewer/internal/redact"
	"github.com/dshills/codereviewer/internal/review"
)

var (
	flagStaged     bool
	flagCommit     string
	flagBranch     string
	flagOut        string
	flagFormat     string
	flagJSON       bool
	flagStrictness string
	flagRules      string
	flagNoRedact   bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long: `Review code changes with static analysis and an LLM.

By default, reviews unstaged changes. Use --staged to review staged changes,
--commit <SHA> to review a specific commit, or --branch BASE[..TARGET] to
review the difference between two refs.

Exit status is 2 when critical issues are found and 1 for high severity issues.`,
	Example: `  code-reviewer review
  code-reviewer review --staged
  code-reviewer review --commit abc123
  code-reviewer review --branch main..feature --format markdown
  code-reviewer review --output review.txt`,
	Args: cobra.NoArgs,
	RunE: runReviewCmd,
}

func buildReviewOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagJSON {
		m["format"] = "json"
	}
	if flagStrictness != "" {
		m["strictness"] = flagStrictness
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	return m
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd, buildReviewOverrides())
	if err != nil {
		return err
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		console(cmd.ErrOrStderr()).Warn("secret redaction is disabled")
	}

	// Machine-readable formats keep stdout clean for the report.
	status := console(cmd.OutOrStdout())
	if cfg.Format == "json" || cfg.Format == "sarif" {
		status = console(cmd.ErrOrStderr())
	}

	if err := cfg.ValidateCredentials(); err != nil {
		fail(cmd, ExitRuntimeError, "Configuration Error: %v", err)
		return nil
	}

	ctx := cmd.Context()
	repo, err := diffread.OpenGit(ctx, ".")
	if err != nil {
		fail(cmd, ExitRuntimeError, "%v", err)
		return nil
	}
	reader := diffread.NewReader(repo, log)

	status.Heading("🔍 Analyzing code changes...")
	changes, emptySummary, err := readChanges(ctx, reader, status)
	if err != nil {
		fail(cmd, ExitRuntimeError, "Error during review: %v", err)
		return nil
	}

	var res *review.Result
	if len(changes) == 0 {
		res = review.Empty(emptySummary)
	} else {
		res, err = runReview(ctx, cfg, log, repo.Root(), changes)
		if err != nil {
			fail(cmd, ExitRuntimeError, "Error during review: %v", err)
			return nil
		}
	}

	meta := output.NewMeta(version)
	if flagOut != "" {
		if err := output.WriteToFile(res, cfg.Format, meta, flagOut); err != nil {
			fail(cmd, ExitRuntimeError, "Error writing output: %v", err)
			return nil
		}
		status.Print("")
		status.Success("Review saved to: " + flagOut)
	} else {
		w, err := output.GetWriter(cfg.Format, meta)
		if err != nil {
			return err
		}
		if err := w.Write(cmd.OutOrStdout(), res); err != nil {
			fail(cmd, ExitRuntimeError, "Error writing output: %v", err)
			return nil
		}
	}

	status.Print("")
	switch {
	case res.CriticalCount() > 0:
		status.Error(fmt.Sprintf("CRITICAL ISSUES FOUND: %d", res.CriticalCount()))
		exitCode = ExitCriticalIssues
	case res.HighCount() > 0:
		status.Warn(fmt.Sprintf("HIGH SEVERITY ISSUES FOUND: %d", res.HighCount()))
		exitCode = ExitHighIssues
	default:
		status.Success(fmt.Sprintf("Code review complete! Score: %d/100", res.Score))
	}
	return nil
}

// readChanges selects the change set named by the flags and returns the
// summary to use when it is empty.
func readChanges(ctx context.Context, reader *diffread.Reader, status *output.Console) ([]diffread.Change, string, error) {
	switch {
	case flagCommit != "":
		status.Info("Reviewing commit: " + flagCommit)
		changes, err := reader.Commit(ctx, flagCommit)
		return changes, "No changes in commit " + flagCommit + ".", err
	case flagBranch != "":
		base, target := splitRange(flagBranch)
		status.Info(fmt.Sprintf("Reviewing branch diff: %s..%s", base, target))
		changes, err := reader.Branch(ctx, base, target)
		return changes, "No changes between " + base + " and " + target + ".", err
	case flagStaged:
		status.Info("Reviewing staged changes")
		changes, err := reader.Staged(ctx)
		return changes, "No staged changes to review.", err
	default:
		status.Info("Reviewing unstaged changes")
		changes, err := reader.Unstaged(ctx)
		return changes, "No unstaged changes to review.", err
	}
}

// splitRange parses BASE[..TARGET]; the target defaults to HEAD.
func splitRange(s string) (base, target string) {
	base, target, ok := strings.Cut(s, "..")
	if !ok || target == "" {
		target = "HEAD"
	}
	return base, strings.TrimPrefix(target, ".")
}

func runReview(ctx context.Context, cfg config.Config, log *slog.Logger, root string, changes []diffread.Change) (*review.Result, error) {
	var rules *review.Rules
	if cfg.RulesFile != "" {
		r, err := review.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		rules = r
	}

	engine, err := newEngine(cfg, log)
	if err != nil {
		return nil, err
	}

	reviewer := review.NewReviewer(engine, promptLoader(cfg), nil, review.Options{
		Root:        root,
		Strictness:  cfg.Strictness,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Checks: review.Checks{
			Security:      cfg.Checks.Security,
			Performance:   cfg.Checks.Performance,
			BestPractices: cfg.Checks.BestPractices,
		},
		Rules:  rules,
		Redact: redact.Policy{Secrets: cfg.Privacy.RedactSecrets, Paths: cfg.Privacy.RedactPaths},
	}, log)
	return reviewer.Review(ctx, changes)
}

func init() {
	reviewCmd.Flags().BoolVar(&flagStaged, "staged", false, "Review staged changes (default: unstaged)")
	reviewCmd.Flags().StringVar(&flagCommit, "commit", "", "Review a specific commit by SHA")
	reviewCmd.Flags().StringVar(&flagBranch, "branch", "", "Review the diff between BASE[..TARGET] (target defaults to HEAD)")
	reviewCmd.Flags().StringVar(&flagOut, "output", "", "Save review to file")
	reviewCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	reviewCmd.Flags().BoolVar(&flagJSON, "json", false, "Output in JSON format")
	reviewCmd.Flags().StringVar(&flagStrictness, "strictness", "", "Review strictness (normal, harsh, strict)")
	reviewCmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path (yaml, json or toml)")
	reviewCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	reviewCmd.MarkFlagsMutuallyExclusive("staged", "commit", "branch")
	reviewCmd.MarkFlagsMutuallyExclusive("format", "json")
}
