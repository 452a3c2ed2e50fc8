package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/codereviewer/internal/logging"
)

// MetricsEngine computes raw metrics over source text.
type MetricsEngine interface {
	// Cyclomatic returns one complexity value per function or method.
	Cyclomatic(ctx context.Context, source []byte) ([]int, error)
	Maintainability(ctx context.Context, source []byte) (float64, error)
	// Halstead returns volume, difficulty and effort.
	Halstead(ctx context.Context, source []byte) (map[string]float64, error)
}

// Scores is the output of a Scorer.
type Scores struct {
	LinesOfCode     int
	Total           float64
	Average         float64
	Maintainability float64
	Halstead        map[string]float64
}

// Scorer turns engine output into file metrics. Each engine call is isolated:
// an error or panic in one of them is logged and replaced by a neutral value.
type Scorer struct {
	engine MetricsEngine
	log    *slog.Logger
}

// NewScorer creates a scorer. A nil engine selects the tree-sitter engine.
func NewScorer(engine MetricsEngine, log *slog.Logger) *Scorer {
	if engine == nil {
		engine = TreeSitterEngine{}
	}
	return &Scorer{engine: engine, log: logging.OrDiscard(log)}
}

// Score computes all metrics for source.
func (s *Scorer) Score(ctx context.Context, source []byte) Scores {
	out := Scores{LinesOfCode: countLines(source)}

	ccs := isolate(s.log, "cyclomatic", []int{1}, func() ([]int, error) {
		return s.engine.Cyclomatic(ctx, source)
	})
	sum := 0
	for _, c := range ccs {
		sum += c
	}
	out.Total = float64(sum)
	out.Average = 1.0
	if len(ccs) > 0 {
		out.Average = float64(sum) / float64(len(ccs))
	}

	out.Maintainability = isolate(s.log, "maintainability", 100.0, func() (float64, error) {
		return s.engine.Maintainability(ctx, source)
	})
	out.Halstead = isolate(s.log, "halstead", map[string]float64{}, func() (map[string]float64, error) {
		return s.engine.Halstead(ctx, source)
	})
	return out
}

func isolate[T any](log *slog.Logger, name string, fallback T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("metric panicked", "metric", name, "panic", r)
			out = fallback
		}
	}()
	v, err := fn()
	if err != nil {
		log.Debug("metric unavailable", "metric", name, "error", err)
		return fallback
	}
	return v
}

// countLines counts non-blank lines.
func countLines(source []byte) int {
	n := 0
	for _, l := range strings.Split(string(source), "\n") {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}

// TreeSitterEngine is the default MetricsEngine.
type TreeSitterEngine struct{}

func (TreeSitterEngine) lowered(ctx context.Context, source []byte) (*sitter.Node, *node, error) {
	root, err := parse(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	return root, lower(root, source), nil
}

func (e TreeSitterEngine) Cyclomatic(ctx context.Context, source []byte) ([]int, error) {
	_, tree, err := e.lowered(ctx, source)
	if err != nil {
		return nil, err
	}
	return cyclomatic(tree), nil
}

func cyclomatic(tree *node) []int {
	out := []int{}
	tree.visit(func(n *node) bool {
		if n.kind == kindFunction {
			out = append(out, complexity(n))
		}
		return true
	})
	return out
}

func (e TreeSitterEngine) Halstead(ctx context.Context, source []byte) (map[string]float64, error) {
	_, tree, err := e.lowered(ctx, source)
	if err != nil {
		return nil, err
	}
	return countHalstead(tree, source).report(), nil
}

// Maintainability follows the radon maintainability index, scaled to 0..100.
func (e TreeSitterEngine) Maintainability(ctx context.Context, source []byte) (float64, error) {
	root, tree, err := e.lowered(ctx, source)
	if err != nil {
		return 0, err
	}
	volume := countHalstead(tree, source).volume()
	total := 0
	for _, c := range cyclomatic(tree) {
		total += c
	}
	lloc := logicalLines(tree)
	comments := commentPercent(root, source)
	return maintainabilityIndex(volume, float64(total), float64(lloc), comments), nil
}

func maintainabilityIndex(volume, complexity, sloc, comments float64) float64 {
	if volume <= 0 || sloc <= 0 {
		return 100
	}
	mi := 171 - 5.2*math.Log(volume) - 0.23*complexity - 16.2*math.Log(sloc) +
		50*math.Sin(math.Sqrt(2.46*comments*math.Pi/180))
	return math.Min(math.Max(0, mi*100/171), 100)
}

// logicalLines counts statements.
func logicalLines(tree *node) int {
	n := 0
	tree.visit(func(c *node) bool {
		t := c.src.Type()
		if c.kind == kindAssignment || c.kind == kindFunction || c.kind == kindClass ||
			strings.HasSuffix(t, "_statement") {
			n++
		}
		return true
	})
	return n
}

// commentPercent is the share of comment and docstring rows over the
// non-blank, non-comment-only rows.
func commentPercent(root *sitter.Node, source []byte) float64 {
	rows := map[uint32]bool{}
	walkRaw(root, func(sn *sitter.Node) {
		switch sn.Type() {
		case "comment":
			rows[sn.StartPoint().Row] = true
		case "expression_statement":
			if sn.NamedChildCount() == 1 && sn.NamedChild(0).Type() == "string" {
				for r := sn.StartPoint().Row; r <= sn.EndPoint().Row; r++ {
					rows[r] = true
				}
			}
		}
	})
	sloc := 0
	for _, l := range strings.Split(string(source), "\n") {
		t := strings.TrimSpace(l)
		if t != "" && !strings.HasPrefix(t, "#") {
			sloc++
		}
	}
	if sloc == 0 {
		return 0
	}
	return float64(len(rows)) / float64(sloc) * 100
}

func walkRaw(sn *sitter.Node, fn func(*sitter.Node)) {
	fn(sn)
	for i := 0; i < int(sn.ChildCount()); i++ {
		if c := sn.Child(i); c != nil {
			walkRaw(c, fn)
		}
	}
}

type halstead struct {
	operators     map[string]bool
	operands      map[string]bool
	totalOperator int
	totalOperand  int
}

func countHalstead(tree *node, source []byte) *halstead {
	h := &halstead{operators: map[string]bool{}, operands: map[string]bool{}}
	tree.visit(func(n *node) bool {
		if n.kind == kindBoolOp {
			h.operator(boolOperator(n.src))
			for _, c := range n.children {
				h.operand(c.src.Content(source))
			}
			return true
		}
		sn := n.src
		switch sn.Type() {
		case "binary_operator", "augmented_assignment":
			h.operator(operatorText(sn))
			h.operand(content(sn.ChildByFieldName("left"), source))
			h.operand(content(sn.ChildByFieldName("right"), source))
		case "unary_operator":
			h.operator(operatorText(sn))
			h.operand(content(sn.ChildByFieldName("argument"), source))
		case "not_operator":
			h.operator("not")
			h.operand(content(sn.ChildByFieldName("argument"), source))
		case "comparison_operator":
			for i := 0; i < int(sn.ChildCount()); i++ {
				c := sn.Child(i)
				switch {
				case c.Type() == "comment":
				case c.IsNamed():
					h.operand(c.Content(source))
				default:
					h.operator(c.Type())
				}
			}
		}
		return true
	})
	return h
}

func operatorText(sn *sitter.Node) string {
	if op := sn.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return fmt.Sprintf("<%s>", sn.Type())
}

func content(sn *sitter.Node, source []byte) string {
	if sn == nil {
		return ""
	}
	return sn.Content(source)
}

func (h *halstead) operator(op string) {
	h.operators[op] = true
	h.totalOperator++
}

func (h *halstead) operand(text string) {
	h.operands[text] = true
	h.totalOperand++
}

func (h *halstead) volume() float64 {
	vocabulary := len(h.operators) + len(h.operands)
	if vocabulary == 0 {
		return 0
	}
	return float64(h.totalOperator+h.totalOperand) * math.Log2(float64(vocabulary))
}

func (h *halstead) difficulty() float64 {
	if len(h.operands) == 0 {
		return 0
	}
	return float64(len(h.operators)) / 2 * float64(h.totalOperand) / float64(len(h.operands))
}

func (h *halstead) report() map[string]float64 {
	v, d := h.volume(), h.difficulty()
	return map[string]float64{"volume": v, "difficulty": d, "effort": v * d}
}
