// Package diagnostics renders ASTs and standardized trees as indented
// trees on a terminal, for the -ast and -st flags of cmd/rpal.
//
// Grounded on terex/terexlang/trepl's tree command (indentedListFrom /
// leveledElem / pterm.NewTreeFromLeveledList): that REPL walks a cons-list
// AST into a pterm.LeveledList and renders it with pterm.DefaultTree. This
// package walks internal/ast and internal/standardize's n-ary trees the
// same way, since both are real trees rather than cons lists and need no
// car/cdr recursion.
package diagnostics

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/gorpal/rpal/internal/ast"
	"github.com/gorpal/rpal/internal/standardize"
)

// DumpAST renders a parsed ast.Node tree with the given label as its root.
func DumpAST(label string, n *ast.Node) {
	ll := pterm.LeveledList{}
	ll = leveledAST(n, ll, 0)
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.Println(label)
	pterm.DefaultTree.WithRoot(root).Render()
}

// DumpStandardized renders a standardized tree with the given label as
// its root.
func DumpStandardized(label string, n *standardize.Node) {
	ll := pterm.LeveledList{}
	ll = leveledST(n, ll, 0)
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.Println(label)
	pterm.DefaultTree.WithRoot(root).Render()
}

func leveledAST(n *ast.Node, ll pterm.LeveledList, level int) pterm.LeveledList {
	if n == nil {
		return append(ll, pterm.LeveledListItem{Level: level, Text: "()"})
	}
	ll = append(ll, pterm.LeveledListItem{Level: level, Text: astNodeLabel(n)})
	for _, c := range n.Children {
		ll = leveledAST(c, ll, level+1)
	}
	return ll
}

func leveledST(n *standardize.Node, ll pterm.LeveledList, level int) pterm.LeveledList {
	if n == nil {
		return append(ll, pterm.LeveledListItem{Level: level, Text: "()"})
	}
	ll = append(ll, pterm.LeveledListItem{Level: level, Text: stNodeLabel(n)})
	for _, c := range n.Children {
		ll = leveledST(c, ll, level+1)
	}
	return ll
}

// astNodeLabel renders just this node's own head, leaving children to the
// recursive leveled walk (unlike Node.String(), which recurses itself).
func astNodeLabel(n *ast.Node) string {
	if n.IsLeaf() {
		switch n.Kind {
		case ast.IntLit:
			return n.String()
		case ast.Ident, ast.StringLit, ast.Builtin, ast.TruthLit:
			return n.Text
		default:
			return n.Kind.String()
		}
	}
	if n.Kind == ast.Op {
		return n.Text
	}
	return n.Kind.String()
}

func stNodeLabel(n *standardize.Node) string {
	if len(n.Children) == 0 {
		switch n.Kind {
		case standardize.IntLit, standardize.Ident, standardize.StringLit, standardize.TruthLit:
			return n.String()
		default:
			return n.Kind.String()
		}
	}
	if n.Kind == standardize.Op {
		return n.Text
	}
	if n.Kind == standardize.Lambda {
		return fmt.Sprintf("lambda<%v>", n.Binder.Names)
	}
	return n.Kind.String()
}
