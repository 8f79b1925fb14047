package core

import "github.com/leapstack-labs/leapapp/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
}

// Expr is a marker interface for expression nodes.
//
// The set of expression kinds is deliberately closed: every evaluable
// construct must be enumerable so the evaluator's dispatch stays exhaustive
// and auditable. Do not add an open extension point here.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}
