package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codereviewer/internal/analysis"
	"github.com/dshills/codereviewer/internal/diffread"
	"github.com/dshills/codereviewer/internal/prompts"
	"github.com/dshills/codereviewer/internal/providers"
	"github.com/dshills/codereviewer/internal/redact"
)

type fakeEngine struct {
	reply providers.Reply
	err   error
	got   providers.Request
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Complete(_ context.Context, req providers.Request) (providers.Reply, error) {
	f.calls++
	f.got = req
	return f.reply, f.err
}

type stubAnalyzer struct {
	paths []string
}

func (s *stubAnalyzer) Analyze(_ context.Context, path string) *analysis.FileReport {
	s.paths = append(s.paths, path)
	return &analysis.FileReport{
		Path:      path,
		Functions: []analysis.Function{{Name: "f", Line: 1, Complexity: 2}},
		Metrics:   &analysis.Metrics{LinesOfCode: 4, FunctionCount: 1},
	}
}

func testLoader() *prompts.Loader {
	return prompts.NewFromFS(fstest.MapFS{
		"review_harsh.txt":  {Data: []byte("HARSH TEMPLATE")},
		"review_strict.txt": {Data: []byte("STRICT TEMPLATE")},
	})
}

var sampleChanges = []diffread.Change{
	{Path: "app/db.py", Kind: diffread.Modified, Additions: 1, Patch: "@@ -1 +1 @@\n+API_KEY = 'abcdefghijklmnopqrstuvwxyz'"},
	{Path: "README.md", Kind: diffread.Modified, Additions: 1, Patch: "@@ -1 +1 @@\n+docs"},
}

func TestReviewer_Review(t *testing.T) {
	engine := &fakeEngine{reply: toolReply(`{
		"overall_score": 35,
		"summary": "Hard-coded key",
		"issues": [{"severity": "HIGH", "file_path": "app/db.py", "line_number": 1, "category": "security", "description": "d", "suggestion": "s"}],
		"recommendations": []
	}`)}
	an := &stubAnalyzer{}
	r := NewReviewer(engine, testLoader(), an, Options{
		Root:        "/repo",
		Strictness:  "strict",
		MaxTokens:   8000,
		Temperature: 0.7,
		Checks:      Checks{Security: true},
		Redact:      redact.Policy{Secrets: true},
	}, nil)

	res, err := r.Review(context.Background(), sampleChanges)
	require.NoError(t, err)

	assert.Equal(t, 35, res.Score)
	assert.Equal(t, 1, res.HighCount())
	assert.Contains(t, res.DiffAnalyzed, "## File: app/db.py")

	req := engine.got
	assert.Equal(t, 8000, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.NotNil(t, req.Tool)
	assert.Equal(t, ReviewToolName, req.Tool.Name)
	assert.Contains(t, req.UserPrompt, "STRICT TEMPLATE")
	assert.Contains(t, req.UserPrompt, "- Check for security vulnerabilities.")
	assert.Contains(t, req.UserPrompt, "### app/db.py - Code Analysis")
	assert.NotContains(t, req.UserPrompt, "### README.md")
	assert.NotContains(t, req.UserPrompt, "abcdefghijklmnopqrstuvwxyz")

	assert.Equal(t, []string{filepath.Join("/repo", "app", "db.py")}, an.paths)
}

func TestReviewer_EmptyChanges(t *testing.T) {
	engine := &fakeEngine{}
	r := NewReviewer(engine, testLoader(), &stubAnalyzer{}, Options{}, nil)
	res, err := r.Review(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Zero(t, engine.calls)
}

func TestReviewer_FreeTextReply(t *testing.T) {
	engine := &fakeEngine{reply: textReply("not json")}
	r := NewReviewer(engine, testLoader(), &stubAnalyzer{}, Options{}, nil)
	res, err := r.Review(context.Background(), sampleChanges)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, "not json", res.Summary)
	assert.Equal(t, []string{parseFailureAdvice}, res.Recommendations)
}

func TestReviewer_SeverityOverrides(t *testing.T) {
	engine := &fakeEngine{reply: toolReply(`{"issues": [
		{"severity": "LOW", "file_path": "a.py", "category": "security", "description": "d", "suggestion": "s"}
	]}`)}
	rules := &Rules{SeverityOverrides: map[string]string{"security": "critical"}}
	r := NewReviewer(engine, testLoader(), &stubAnalyzer{}, Options{Rules: rules}, nil)
	res, err := r.Review(context.Background(), sampleChanges)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CriticalCount())
	assert.Contains(t, engine.got.UserPrompt, "security issues should be rated as CRITICAL severity.")
}

// statusEngine talks to a real httptest server through the OpenAI provider
// so the typed provider errors are produced end to end.
func statusEngine(t *testing.T, status int, body string) providers.Engine {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	t.Setenv("CODE_REVIEWER_OPENAI_BASE_URL", server.URL)
	e, err := providers.NewOpenAI("gpt-4o", "k", nil)
	require.NoError(t, err)
	return e
}

func TestReviewer_EngineFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"auth", 401, "bad key", "Authentication error: bad key"},
		{"status", 400, "bad request", "API error (status 400): bad request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReviewer(statusEngine(t, tt.status, tt.body), testLoader(), &stubAnalyzer{}, Options{}, nil)
			res, err := r.Review(context.Background(), sampleChanges)
			require.NoError(t, err)
			assert.Zero(t, res.Score)
			assert.Equal(t, tt.want, res.Summary)
			assert.Empty(t, res.Issues)
			assert.NotEmpty(t, res.DiffAnalyzed)
		})
	}
}

func TestEngineFailureSummary_Generic(t *testing.T) {
	assert.Equal(t, "API Error: boom", EngineFailureSummary(errors.New("boom")))
}

func TestReviewer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &fakeEngine{err: context.Canceled}
	r := NewReviewer(engine, testLoader(), &stubAnalyzer{}, Options{}, nil)
	_, err := r.Review(ctx, sampleChanges)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReviewer_MissingPrompt(t *testing.T) {
	r := NewReviewer(&fakeEngine{}, prompts.NewFromFS(fstest.MapFS{}), &stubAnalyzer{}, Options{}, nil)
	_, err := r.Review(context.Background(), sampleChanges)
	assert.Error(t, err)
}

func TestReviewer_RealAnalyzer(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "calc.py"), []byte("def add(a: int, b: int) -> int:\n    return a + b\n"), 0o644))

	engine := &fakeEngine{reply: toolReply(`{"overall_score": 95, "summary": "fine"}`)}
	r := NewReviewer(engine, testLoader(), nil, Options{Root: root}, nil)
	_, err := r.Review(context.Background(), []diffread.Change{
		{Path: "calc.py", Kind: diffread.Added, Additions: 2},
		{Path: "gone.py", Kind: diffread.Deleted, Deletions: 3},
	})
	require.NoError(t, err)

	assert.Contains(t, engine.got.UserPrompt, "### calc.py - Code Analysis")
	assert.Contains(t, engine.got.UserPrompt, "def add(a: int, b: int) -> int (line 1, complexity: 1)")
	assert.Contains(t, engine.got.UserPrompt, "### gone.py\nParse errors: Failed to read file:")
}

func TestReviewTool_Schema(t *testing.T) {
	tool := ReviewTool()
	data, err := json.Marshal(tool.InputSchema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"enum":["CRITICAL","HIGH","MEDIUM","LOW"]`)
	assert.Contains(t, string(data), `"enum":["security","performance","quality","best-practices"]`)
	assert.Contains(t, string(data), `"required":["overall_score","summary","issues","recommendations"]`)
}
