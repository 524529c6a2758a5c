package analyzer

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// grammar binds a tree-sitter language to the node types that matter for
// decision-point counting: function-like units and the decision nodes
// (conditionals, loops, exception handlers) inside them.
type grammar struct {
	language  *sitter.Language
	units     map[string]struct{}
	decisions map[string]struct{}
}

func typeSet(types ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

var pythonGrammar = &grammar{
	language: python.GetLanguage(),
	units:    typeSet("function_definition"),
	decisions: typeSet(
		"if_statement", "elif_clause", "conditional_expression",
		"for_statement", "while_statement", "except_clause", "case_clause",
	),
}

var javascriptGrammar = &grammar{
	language: javascript.GetLanguage(),
	units: typeSet(
		"function_declaration", "generator_function_declaration",
		"method_definition", "arrow_function", "function", "function_expression",
	),
	decisions: typeSet(
		"if_statement", "for_statement", "for_in_statement",
		"while_statement", "do_statement", "switch_case", "catch_clause",
		"ternary_expression",
	),
}

var goGrammar = &grammar{
	language: golang.GetLanguage(),
	units:    typeSet("function_declaration", "method_declaration", "func_literal"),
	decisions: typeSet(
		"if_statement", "for_statement", "expression_case", "type_case",
		"communication_case",
	),
}

// unit is one function-like block with its decision-point count.
type unit struct {
	name       string
	line       int
	complexity int
}

// parseUnits parses code with the grammar's tree-sitter language and returns
// one entry per function-like unit. A new parser is created per call; parser
// instances are not safe for concurrent use.
func parseUnits(ctx context.Context, g *grammar, code []byte) ([]unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root node")
	}
	if root.HasError() {
		return nil, fmt.Errorf("source contains syntax errors")
	}

	var units []unit
	collectUnits(g, root, code, &units)
	return units, nil
}

func collectUnits(g *grammar, n *sitter.Node, code []byte, out *[]unit) {
	if _, ok := g.units[n.Type()]; ok {
		*out = append(*out, unit{
			name:       unitName(n, code),
			line:       int(n.StartPoint().Row) + 1,
			complexity: countDecisions(g, n),
		})
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectUnits(g, n.NamedChild(i), code, out)
	}
}

// countDecisions counts decision nodes inside a unit without descending into
// nested units, so each nested function is scored on its own.
func countDecisions(g *grammar, n *sitter.Node) int {
	count := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if _, nested := g.units[child.Type()]; nested {
			continue
		}
		if _, ok := g.decisions[child.Type()]; ok {
			count++
		}
		count += countDecisions(g, child)
	}
	return count
}

func unitName(n *sitter.Node, code []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(code)
	}
	return "(anonymous)"
}
