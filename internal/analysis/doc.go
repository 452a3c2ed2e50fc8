// Package analysis extracts structure and quality metrics from Python source
// files.
//
// Parsing uses the tree-sitter Python grammar. The raw syntax tree is lowered
// into a small tagged-node tree (conditionals, loops, handlers, boolean
// chains, definitions, imports, assignments) and every query over it is a
// visitor: structure extraction, per-definition cyclomatic complexity and the
// Halstead counts.
//
// [Analyzer.Analyze] is all-or-nothing per file: a read or syntax failure
// yields a [FileReport] carrying only ParseErrors. Metrics are computed from
// the raw text by a [Scorer] whose three sub-computations fail independently
// and fall back to neutral values.
//
// Requires cgo (tree-sitter).
package analysis
