package ape

import (
	"fmt"
	"strings"

	"github.com/clarete/ape/ascii"
)

// PrintStatements renders a parsed program as plain text, one line per
// top-level statement, via each node's own String(). Grounded on the
// teacher's grammar_ast_printer.go (tree_printer.go is now superseded
// by this simpler line-oriented form, since our AST's String() methods
// already produce a faithful textual form — spec.md doesn't require
// the tree-drawing box art the PEG AST printer used).
func PrintStatements(stmts []Statement) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// astColorPrinter walks the AST applying ascii.DefaultTheme; it backs
// HighlightStatements' colorized output. (The CLI's -ast-only flag
// prints the plain PrintStatements form.)
type astColorPrinter struct {
	out   strings.Builder
	theme ascii.Theme
}

// HighlightStatements is PrintStatements' ANSI-colored counterpart.
func HighlightStatements(stmts []Statement) string {
	p := &astColorPrinter{theme: ascii.DefaultTheme}
	for _, s := range stmts {
		p.visitStatement(s)
		p.out.WriteByte('\n')
	}
	return p.out.String()
}

func (p *astColorPrinter) color(c, s string) string { return c + s + ascii.Reset }

func (p *astColorPrinter) visitStatement(s Statement) {
	switch n := s.(type) {
	case *DefineStatement:
		kw := "var"
		if n.Const {
			kw = "const"
		}
		p.out.WriteString(p.color(p.theme.Operator, kw))
		p.out.WriteByte(' ')
		p.out.WriteString(p.color(p.theme.Accent, n.Name.Value))
		p.out.WriteString(" = ")
		p.visitExpression(n.Value)
	case *ExpressionStatement:
		p.visitExpression(n.Expression)
	case *ReturnStatement:
		p.out.WriteString(p.color(p.theme.Operator, "return"))
		if n.ReturnValue != nil {
			p.out.WriteByte(' ')
			p.visitExpression(n.ReturnValue)
		}
	default:
		p.out.WriteString(s.String())
	}
}

func (p *astColorPrinter) visitExpression(e Expression) {
	switch n := e.(type) {
	case *NumberLiteral:
		p.out.WriteString(p.color(p.theme.Literal, n.String()))
	case *StringLiteral:
		p.out.WriteString(p.color(p.theme.Literal, n.String()))
	case *BoolLiteral:
		p.out.WriteString(p.color(p.theme.Literal, n.String()))
	case *Identifier:
		p.out.WriteString(p.color(p.theme.Accent, n.Value))
	case *InfixExpression:
		p.out.WriteByte('(')
		p.visitExpression(n.Left)
		p.out.WriteByte(' ')
		p.out.WriteString(p.color(p.theme.Operator, n.Operator))
		p.out.WriteByte(' ')
		p.visitExpression(n.Right)
		p.out.WriteByte(')')
	default:
		p.out.WriteString(fmt.Sprintf("%s", e.String()))
	}
}
