// Package control flattens a standardized tree into a table of linear
// control-item sequences (spec.md §4.2), and builds each sequence already
// in the order the CSE machine consumes it: index 0 is the first item
// the machine processes. internal/cse's Run expands a control-structure
// index by splicing its item slice onto the front of the live control
// list, so "build order" and "machine order" coincide by construction —
// no push/pop direction juggling is needed at flatten time or run time.
//
// Per-construct ordering (all cross-checked against spec.md §4.3's 13
// rules and §5's evaluation-order statements):
//   - gamma(rator, rand): rand, then rator, then Gamma — rule 4 pops
//     rator before rand, so rator's value must land on top of S, which
//     requires rator to be evaluated (and thus pushed) after rand.
//   - tau(e1..en): e1, e2, ..., en, then Tau(n) — left-to-right per §5;
//     Tau(n)'s "first pop is the last component" then falls out of en
//     being topmost on S.
//   - cond(guard, then, else): guard, then Beta, Condition(kt),
//     Condition(ke) — guard's boolean must be on S before beta fires.
//   - binary op(left, right): right, then left, then Op — mirrors gamma,
//     so rule 6's "pop a then b" yields a=left's value, b=right's value.
//   - unary op(operand): operand, then Op.
package control

import (
	"github.com/gorpal/rpal/internal/standardize"
)

// ItemKind identifies the variant of a control Item.
type ItemKind int

const (
	ItemInt ItemKind = iota
	ItemString
	ItemTruth
	ItemNil
	ItemIdent
	ItemDummy
	ItemYStar
	ItemGamma
	ItemLambda
	ItemTau
	ItemCondition
	ItemBeta
	ItemOp
	ItemEnvMarker // never appears in a static Table; injected at run time
)

// Item is one control-item token, per spec.md §3's "Control item" shape.
type Item struct {
	Kind ItemKind

	Int  int64    // ItemInt
	Str  string   // ItemString, ItemIdent, ItemOp (operator spelling)
	Bool bool     // ItemTruth
	K    int      // ItemLambda, ItemCondition: control-structure index
	BV   []string // ItemLambda
	N    int       // ItemTau: arity
	E    int       // ItemEnvMarker: environment id
}

// Table is the δ table: Table.Seqs[k] is control structure δ[k], already
// in machine-consumption order. Seqs[0] is the whole program's entry
// point.
type Table struct {
	Seqs [][]Item
}

func (t *Table) alloc() int {
	t.Seqs = append(t.Seqs, nil)
	return len(t.Seqs) - 1
}

// Build compiles root into a Table whose δ[0] is root's own sequence.
func Build(root *standardize.Node) *Table {
	t := &Table{}
	k := t.alloc()
	t.Seqs[k] = compile(t, root)
	return t
}

func compile(t *Table, n *standardize.Node) []Item {
	switch n.Kind {
	case standardize.IntLit:
		return []Item{{Kind: ItemInt, Int: n.IntVal}}
	case standardize.StringLit:
		return []Item{{Kind: ItemString, Str: n.Text}}
	case standardize.TruthLit:
		return []Item{{Kind: ItemTruth, Bool: n.IntVal != 0}}
	case standardize.NilLit:
		return []Item{{Kind: ItemNil}}
	case standardize.Dummy:
		return []Item{{Kind: ItemDummy}}
	case standardize.Ident:
		return []Item{{Kind: ItemIdent, Str: n.Text}}
	case standardize.YStar:
		return []Item{{Kind: ItemYStar}}

	case standardize.Lambda:
		k := t.alloc()
		t.Seqs[k] = compile(t, n.Children[0])
		return []Item{{Kind: ItemLambda, K: k, BV: n.Binder.Names}}

	case standardize.Gamma:
		rator, rand := n.Children[0], n.Children[1]
		out := append([]Item{}, compile(t, rand)...)
		out = append(out, compile(t, rator)...)
		out = append(out, Item{Kind: ItemGamma})
		return out

	case standardize.Tau:
		var out []Item
		for _, c := range n.Children {
			out = append(out, compile(t, c)...)
		}
		out = append(out, Item{Kind: ItemTau, N: len(n.Children)})
		return out

	case standardize.Cond:
		guard, then, els := n.Children[0], n.Children[1], n.Children[2]
		kt := t.alloc()
		t.Seqs[kt] = compile(t, then)
		ke := t.alloc()
		t.Seqs[ke] = compile(t, els)
		out := append([]Item{}, compile(t, guard)...)
		out = append(out, Item{Kind: ItemBeta})
		out = append(out, Item{Kind: ItemCondition, K: kt})
		out = append(out, Item{Kind: ItemCondition, K: ke})
		return out

	case standardize.Op:
		if len(n.Children) == 1 {
			out := append([]Item{}, compile(t, n.Children[0])...)
			out = append(out, Item{Kind: ItemOp, Str: n.Text})
			return out
		}
		left, right := n.Children[0], n.Children[1]
		out := append([]Item{}, compile(t, right)...)
		out = append(out, compile(t, left)...)
		out = append(out, Item{Kind: ItemOp, Str: n.Text})
		return out
	}
	return nil
}
