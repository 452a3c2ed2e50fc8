package review

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dshills/codereviewer/internal/analysis"
	"github.com/dshills/codereviewer/internal/diffread"
	"github.com/dshills/codereviewer/internal/logging"
	"github.com/dshills/codereviewer/internal/prompts"
	"github.com/dshills/codereviewer/internal/providers"
	"github.com/dshills/codereviewer/internal/redact"
)

// Analyzer produces structural reports for changed files.
type Analyzer interface {
	Analyze(ctx context.Context, path string) *analysis.FileReport
}

// Options configures a Reviewer.
type Options struct {
	// Root is the repository root that change paths are relative to.
	Root        string
	Strictness  string
	MaxTokens   int
	Temperature float64
	Checks      Checks
	Rules       *Rules
	Redact      redact.Policy
}

// Reviewer runs one review per change set.
type Reviewer struct {
	engine   providers.Engine
	prompts  *prompts.Loader
	analyzer Analyzer
	opts     Options
	log      *slog.Logger
}

// NewReviewer wires a reviewer. A nil analyzer uses the tree-sitter analyzer.
func NewReviewer(engine providers.Engine, loader *prompts.Loader, analyzer Analyzer, opts Options, log *slog.Logger) *Reviewer {
	log = logging.OrDiscard(log)
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(log)
	}
	return &Reviewer{engine: engine, prompts: loader, analyzer: analyzer, opts: opts, log: log}
}

// Review sends the change set to the engine and validates the reply.
// Engine failures produce a zero-score result rather than an error; the
// error return is reserved for local failures and cancellation.
func (r *Reviewer) Review(ctx context.Context, changes []diffread.Change) (*Result, error) {
	if len(changes) == 0 {
		return Empty("No changes to review."), nil
	}

	brief, diffContext, err := r.Brief(ctx, changes)
	if err != nil {
		return nil, err
	}

	r.log.Debug("sending review", "engine", r.engine.Name(), "files", len(changes), "bytes", len(brief))
	reply, err := r.engine.Complete(ctx, providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   brief,
		MaxTokens:    r.opts.MaxTokens,
		Temperature:  r.opts.Temperature,
		Tool:         ReviewTool(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("engine call failed", "engine", r.engine.Name(), "error", err)
		res := failed(EngineFailureSummary(err))
		res.DiffAnalyzed = diffContext
		return res, nil
	}

	r.log.Debug("engine replied", "payload", Classify(reply).Kind, "tokens", reply.TokensUsed)
	res := Validate(reply)
	res.Issues = ApplySeverityOverrides(res.Issues, r.opts.Rules)
	res.DiffAnalyzed = diffContext
	return res, nil
}

// Brief composes the prompt for a change set and returns it along with
// the diff context it contains. Patches are redacted first.
func (r *Reviewer) Brief(ctx context.Context, changes []diffread.Change) (brief, diffContext string, err error) {
	template, err := r.prompts.Review(r.opts.Strictness)
	if err != nil {
		return "", "", fmt.Errorf("loading review prompt: %w", err)
	}

	redacted := make([]diffread.Change, len(changes))
	for i, c := range changes {
		c.Patch = r.opts.Redact.Patch(c.Path, c.Patch)
		redacted[i] = c
	}
	diffContext = ComposeDiffContext(redacted)

	var reports []*analysis.FileReport
	for _, c := range changes {
		if !c.Analyzable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		rep := r.analyzer.Analyze(ctx, filepath.Join(r.opts.Root, filepath.FromSlash(c.Path)))
		rep.Path = c.Path
		reports = append(reports, rep)
	}

	brief = ComposeBrief(Brief{
		Template:         template,
		Focus:            BuildFocusSection(r.opts.Checks, r.opts.Rules),
		DiffContext:      diffContext,
		StructureContext: ComposeStructureContext(reports),
	})
	return brief, diffContext, nil
}

// EngineFailureSummary names the failure category of an engine error for a
// zero-score result.
func EngineFailureSummary(err error) string {
	switch {
	case providers.IsNetworkError(err):
		return fmt.Sprintf("Network error: %v", providers.NetworkCause(err))
	case providers.IsRateLimit(err):
		return "Rate limit exceeded. Please wait and try again."
	case providers.IsAuthError(err):
		return "Authentication error: " + providers.ErrorBody(err)
	}
	if code, ok := providers.StatusCode(err); ok {
		return fmt.Sprintf("API error (status %d): %s", code, providers.ErrorBody(err))
	}
	return "API Error: " + err.Error()
}
