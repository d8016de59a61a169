// Package envtree implements the environment chain as an append-only
// arena keyed by monotonically increasing integer id, per spec's design
// note that environments are owned by the arena rather than referenced by
// pointer, and that a closure's captured environment id remains valid for
// the arena's lifetime.
//
// Grounded on gorgo's runtime.MemoryFrameStack (runtime/memframe.go) and
// ScopeTree (runtime/symtable.go): both manage nested lexical scopes as a
// tree of frames referenced by integer/slice index rather than by pointer
// chasing, which is the same shape this package needs for RPAL's
// environment-id invariant (spec.md's Lambda-closure invariant requires
// ids, not pointers, to stay meaningful across the arena's lifetime).
package envtree

import (
	"github.com/gorpal/rpal"
	"github.com/gorpal/rpal/internal/value"
)

// Arena owns every environment ever created during a run. Environment 0
// is the root (primitive) environment, pre-populated by the builtins
// package before evaluation starts.
type Arena struct {
	parent []int
	vars   []map[string]value.Value
}

// New creates an arena with a single root environment, id 0.
func New() *Arena {
	return &Arena{
		parent: []int{-1},
		vars:   []map[string]value.Value{{}},
	}
}

// Fresh allocates a new environment with the given parent id and returns
// its id.
func (a *Arena) Fresh(parent int) int {
	a.parent = append(a.parent, parent)
	a.vars = append(a.vars, map[string]value.Value{})
	return len(a.parent) - 1
}

// Bind binds name to v in environment e.
func (a *Arena) Bind(e int, name string, v value.Value) {
	a.vars[e][name] = v
}

// Lookup resolves name starting at environment e and walking up through
// parent links, per spec's "identifiers lookup upward from the current
// environment".
func (a *Arena) Lookup(e int, name string) (value.Value, bool) {
	for cur := e; cur >= 0; cur = a.parent[cur] {
		if v, ok := a.vars[cur][name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// LookupErr is Lookup plus the undefined-identifier error spec.md's error
// taxonomy requires when a name is never bound anywhere on the chain.
func (a *Arena) LookupErr(e int, name string, span rpal.Span) (value.Value, error) {
	v, ok := a.Lookup(e, name)
	if !ok {
		return value.Value{}, rpal.NewErrorAt(rpal.UndefinedNameErr, name, span)
	}
	return v, nil
}
