package analysis

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

type nodeKind int

const (
	kindOther nodeKind = iota
	kindConditional
	kindLoop
	kindHandler
	kindBoolOp
	kindFunction
	kindClass
	kindImport
	kindFromImport
	kindAssignment
)

// node is the lowered syntax tree. Only the lowering step looks at
// tree-sitter node types; everything else switches on kind.
type node struct {
	kind       nodeKind
	src        *sitter.Node
	decorators []string
	operands   int  // boolean chains only
	method     bool // function directly inside a class body
	children   []*node
}

// visit walks n in document order. Returning false from fn skips the
// children of that node.
func (n *node) visit(fn func(*node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.visit(fn)
	}
}

func (n *node) line() int    { return int(n.src.StartPoint().Row) + 1 }
func (n *node) endLine() int { return int(n.src.EndPoint().Row) + 1 }

// parse runs the tree-sitter Python grammar over source and returns the raw
// root, or a *ParseError when the tree contains error or missing nodes.
func parse(ctx context.Context, source []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("parse error: %v", err)}
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}
	return root, nil
}

func syntaxError(root *sitter.Node, source []byte) *ParseError {
	bad := firstBad(root)
	if bad == nil {
		return &ParseError{Msg: "invalid syntax"}
	}
	line := int(bad.StartPoint().Row) + 1
	if bad.IsMissing() {
		return &ParseError{Line: line, Msg: fmt.Sprintf("expected %q", bad.Type())}
	}
	text := strings.TrimSpace(bad.Content(source))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if text == "" {
		return &ParseError{Line: line, Msg: "invalid syntax"}
	}
	return &ParseError{Line: line, Msg: fmt.Sprintf("invalid syntax near %q", text)}
}

func firstBad(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !(c.HasError() || c.IsMissing()) {
			continue
		}
		if bad := firstBad(c); bad != nil {
			return bad
		}
	}
	return nil
}

type lowerer struct {
	source []byte
}

func lower(root *sitter.Node, source []byte) *node {
	l := &lowerer{source: source}
	return l.lower(root)
}

func (l *lowerer) lower(sn *sitter.Node) *node {
	switch sn.Type() {
	case "if_statement", "elif_clause":
		return l.wrap(kindConditional, sn)
	case "for_statement", "while_statement":
		return l.wrap(kindLoop, sn)
	case "except_clause", "except_group_clause":
		return l.wrap(kindHandler, sn)
	case "boolean_operator":
		return l.boolChain(sn)
	case "function_definition":
		return l.wrap(kindFunction, sn)
	case "class_definition":
		return l.class(sn)
	case "decorated_definition":
		return l.decorated(sn)
	case "import_statement":
		return &node{kind: kindImport, src: sn}
	case "import_from_statement", "future_import_statement":
		return &node{kind: kindFromImport, src: sn}
	case "expression_statement":
		if sn.NamedChildCount() == 1 {
			if c := sn.NamedChild(0); c.Type() == "assignment" {
				return l.wrap(kindAssignment, c)
			}
		}
	}
	return l.wrap(kindOther, sn)
}

func (l *lowerer) wrap(kind nodeKind, sn *sitter.Node) *node {
	n := &node{kind: kind, src: sn}
	for i := 0; i < int(sn.NamedChildCount()); i++ {
		n.children = append(n.children, l.lower(sn.NamedChild(i)))
	}
	return n
}

// boolChain flattens left-nested chains of the same operator so that
// `a and b and c` becomes one node with three operands.
func (l *lowerer) boolChain(sn *sitter.Node) *node {
	op := boolOperator(sn)
	n := &node{kind: kindBoolOp, src: sn}
	var collect func(*sitter.Node)
	collect = func(cur *sitter.Node) {
		for _, field := range []string{"left", "right"} {
			side := cur.ChildByFieldName(field)
			if side == nil {
				continue
			}
			if side.Type() == "boolean_operator" && boolOperator(side) == op {
				collect(side)
				continue
			}
			n.operands++
			n.children = append(n.children, l.lower(side))
		}
	}
	collect(sn)
	return n
}

func boolOperator(sn *sitter.Node) string {
	if op := sn.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func (l *lowerer) class(sn *sitter.Node) *node {
	n := l.wrap(kindClass, sn)
	for _, c := range n.children {
		if c.src.Type() != "block" {
			continue
		}
		for _, stmt := range c.children {
			if stmt.kind == kindFunction {
				stmt.method = true
			}
		}
	}
	return n
}

func (l *lowerer) decorated(sn *sitter.Node) *node {
	def := sn.ChildByFieldName("definition")
	if def == nil {
		return l.wrap(kindOther, sn)
	}
	n := l.lower(def)
	for i := 0; i < int(sn.NamedChildCount()); i++ {
		c := sn.NamedChild(i)
		if c.Type() != "decorator" {
			continue
		}
		text := strings.TrimSpace(c.Content(l.source))
		n.decorators = append(n.decorators, strings.TrimSpace(strings.TrimPrefix(text, "@")))
	}
	return n
}
