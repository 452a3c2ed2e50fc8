package analysis

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extract parses source and returns its structural model. A syntax failure
// is returned as a *ParseError.
func Extract(ctx context.Context, source []byte) (*Structure, error) {
	root, err := parse(ctx, source)
	if err != nil {
		return nil, err
	}
	x := &extractor{source: source}
	return x.structure(lower(root, source)), nil
}

type extractor struct {
	source []byte
}

func (x *extractor) text(sn *sitter.Node) string {
	if sn == nil {
		return ""
	}
	return sn.Content(x.source)
}

func (x *extractor) structure(root *node) *Structure {
	s := &Structure{
		Functions: []Function{},
		Classes:   []Class{},
		Imports:   []Import{},
		Globals:   []string{},
	}
	root.visit(func(n *node) bool {
		switch n.kind {
		case kindFunction:
			if !n.method {
				s.Functions = append(s.Functions, x.function(n))
			}
		case kindClass:
			s.Classes = append(s.Classes, x.class(n))
		case kindImport:
			s.Imports = append(s.Imports, x.plainImports(n)...)
		case kindFromImport:
			s.Imports = append(s.Imports, x.fromImport(n))
		}
		return true
	})
	for _, c := range root.children {
		if c.kind != kindAssignment || c.src.ChildByFieldName("type") != nil {
			continue
		}
		if left := c.src.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
			s.Globals = append(s.Globals, x.text(left))
		}
	}
	return s
}

func (x *extractor) function(n *node) Function {
	sn := n.src
	fn := Function{
		Name:       x.text(sn.ChildByFieldName("name")),
		Line:       n.line(),
		EndLine:    n.endLine(),
		Params:     x.params(sn.ChildByFieldName("parameters")),
		Returns:    x.text(sn.ChildByFieldName("return_type")),
		Async:      sn.ChildCount() > 0 && sn.Child(0).Type() == "async",
		Method:     n.method,
		Docstring:  x.docstring(sn.ChildByFieldName("body")),
		Decorators: n.decorators,
		Complexity: complexity(n),
	}
	if fn.Params == nil {
		fn.Params = []Param{}
	}
	return fn
}

func (x *extractor) params(list *sitter.Node) []Param {
	if list == nil {
		return nil
	}
	var out []Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			out = append(out, Param{Name: x.text(p)})
		case "typed_parameter":
			name := ""
			if p.NamedChildCount() > 0 {
				name = x.text(p.NamedChild(0))
			}
			out = append(out, Param{Name: name, Annotation: x.text(p.ChildByFieldName("type"))})
		case "default_parameter", "typed_default_parameter":
			out = append(out, Param{
				Name:       x.text(p.ChildByFieldName("name")),
				Annotation: x.text(p.ChildByFieldName("type")),
			})
		}
	}
	return out
}

func (x *extractor) class(n *node) Class {
	sn := n.src
	c := Class{
		Name:       x.text(sn.ChildByFieldName("name")),
		Line:       n.line(),
		EndLine:    n.endLine(),
		Methods:    []Function{},
		Docstring:  x.docstring(sn.ChildByFieldName("body")),
		Decorators: n.decorators,
	}
	if supers := sn.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			b := supers.NamedChild(i)
			if b.Type() == "keyword_argument" || b.Type() == "comment" {
				continue
			}
			c.Bases = append(c.Bases, x.text(b))
		}
	}
	for _, child := range n.children {
		if child.src.Type() != "block" {
			continue
		}
		for _, stmt := range child.children {
			if stmt.kind == kindFunction && stmt.method {
				c.Methods = append(c.Methods, x.function(stmt))
			}
		}
	}
	return c
}

// plainImports yields one record per imported name; the alias wins when present.
func (x *extractor) plainImports(n *node) []Import {
	var out []Import
	sn := n.src
	for i := 0; i < int(sn.NamedChildCount()); i++ {
		c := sn.NamedChild(i)
		switch c.Type() {
		case "dotted_name":
			name := x.text(c)
			out = append(out, Import{Module: name, Names: []string{name}, Line: n.line()})
		case "aliased_import":
			out = append(out, Import{
				Module: x.text(c.ChildByFieldName("name")),
				Names:  []string{x.text(c.ChildByFieldName("alias"))},
				Line:   n.line(),
			})
		}
	}
	return out
}

func (x *extractor) fromImport(n *node) Import {
	sn := n.src
	imp := Import{Names: []string{}, Line: n.line(), FromImport: true}
	start := 0
	if sn.Type() == "future_import_statement" {
		imp.Module = "__future__"
	} else if sn.NamedChildCount() > 0 {
		// The first named child is always the module.
		imp.Module = strings.TrimLeft(x.text(sn.NamedChild(0)), ".")
		start = 1
	}
	for i := start; i < int(sn.NamedChildCount()); i++ {
		c := sn.NamedChild(i)
		switch c.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, x.text(c))
		case "aliased_import":
			imp.Names = append(imp.Names, x.text(c.ChildByFieldName("name")))
		case "wildcard_import":
			imp.Names = append(imp.Names, "*")
		}
	}
	return imp
}

// docstring returns the cleaned text of a leading bare string statement.
func (x *extractor) docstring(body *sitter.Node) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return ""
		}
		lit := stmt.NamedChild(0)
		switch lit.Type() {
		case "string":
			return cleanDoc(unquote(x.text(lit)))
		case "concatenated_string":
			var b strings.Builder
			for j := 0; j < int(lit.NamedChildCount()); j++ {
				if part := lit.NamedChild(j); part.Type() == "string" {
					b.WriteString(unquote(x.text(part)))
				}
			}
			return cleanDoc(b.String())
		}
		return ""
	}
	return ""
}

// unquote strips the string prefix and the surrounding quotes. Byte and
// formatted literals are not docstrings and yield "".
func unquote(lit string) string {
	i := strings.IndexAny(lit, `"'`)
	if i < 0 {
		return ""
	}
	prefix := strings.ToLower(lit[:i])
	if strings.ContainsAny(prefix, "bf") {
		return ""
	}
	body := lit[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return body[len(q) : len(body)-len(q)]
		}
	}
	return body
}

// cleanDoc removes the uniform indentation of continuation lines and
// surrounding blank lines.
func cleanDoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")
	indent := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		if n := len(l) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}
	lines[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		if indent > 0 && len(lines[i]) >= indent {
			lines[i] = lines[i][indent:]
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// complexity is 1 plus every decision point in the definition's subtree.
func complexity(fn *node) int {
	total := 1
	fn.visit(func(n *node) bool {
		switch n.kind {
		case kindConditional, kindLoop, kindHandler:
			total++
		case kindBoolOp:
			total += n.operands - 1
		}
		return true
	})
	return total
}
