/*
Package rpal is an interpreter for RPAL (Right-reference Pedagogical
Algorithmic Language), a small applicative-order functional language
with lexical scope, first-class functions, recursion via a fixed-point
combinator, tuples, and a small built-in operator set.

Package structure:

■ internal/lexer: tokenizes RPAL source text.

■ internal/parse: a recursive-descent parser producing an AST.

■ internal/ast: the AST node type shared by parser and standardizer.

■ internal/standardize: rewrites an AST into the standardized tree (ST),
restricted to a small set of kernel node kinds.

■ internal/control: flattens a standardized tree into linear control
structures.

■ internal/cse: the Control-Stack-Environment machine that evaluates
control structures to a value.

■ internal/envtree: the environment chain used by the CSE machine.

■ internal/builtins: RPAL's built-in operators.

The base package contains data types shared across all of the above.
*/
package rpal
