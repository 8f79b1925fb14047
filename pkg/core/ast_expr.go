package core

import "github.com/leapstack-labs/leapapp/pkg/token"

// ---------- Expression Types ----------

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for literal value types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal represents a literal value. Value holds the raw source text;
// numeric conversion happens at evaluation time.
type Literal struct {
	Type     LiteralType
	Value    string
	Position token.Position
}

func (*Literal) exprNode() {}

// Pos implements Node.
func (l *Literal) Pos() token.Position { return l.Position }

// FieldRef represents a field reference as an ordered path of identifiers.
// Cross-entity arrow traversal (self->signatory->aml_status) is flattened
// into one path at parse time so the evaluator resolves local and relational
// references with the same walk.
type FieldRef struct {
	Path     []string
	Position token.Position
}

func (*FieldRef) exprNode() {}

// Pos implements Node.
func (f *FieldRef) Pos() token.Position { return f.Position }

// String returns the arrow-joined source form of the path.
func (f *FieldRef) String() string {
	s := ""
	for i, seg := range f.Path {
		if i > 0 {
			s += "->"
		}
		s += seg
	}
	return s
}

// DurationLiteral represents a duration such as "3 d" or "48 h".
// The unit is kept symbolic; unit semantics live in the evaluator so the
// conversion table exists in exactly one place.
type DurationLiteral struct {
	Value    int64
	Unit     string // d, h, w, min, m, y
	Position token.Position
}

func (*DurationLiteral) exprNode() {}

// Pos implements Node.
func (d *DurationLiteral) Pos() token.Position { return d.Position }

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// Pos implements Node.
func (b *BinaryExpr) Pos() token.Position {
	if b.Left != nil {
		return b.Left.Pos()
	}
	return token.Position{}
}

// UnaryExpr represents a unary expression (NOT, unary minus).
type UnaryExpr struct {
	Op       token.TokenType
	Expr     Expr
	Position token.Position
}

func (*UnaryExpr) exprNode() {}

// Pos implements Node.
func (u *UnaryExpr) Pos() token.Position { return u.Position }

// FuncCall represents a call into the closed builtin function set.
type FuncCall struct {
	Name     string
	Args     []Expr
	Position token.Position
}

func (*FuncCall) exprNode() {}

// Pos implements Node.
func (f *FuncCall) Pos() token.Position { return f.Position }

// InExpr represents membership tests: probe in (a, b, c) / probe not in (...).
type InExpr struct {
	Probe      Expr
	Candidates []Expr
	Negated    bool
}

func (*InExpr) exprNode() {}

// Pos implements Node.
func (i *InExpr) Pos() token.Position {
	if i.Probe != nil {
		return i.Probe.Pos()
	}
	return token.Position{}
}

// ElifBranch is one elif arm of an IfExpr.
type ElifBranch struct {
	Cond Expr
	Then Expr
}

// IfExpr represents a conditional expression:
// if cond then a [elif cond2 then b]... else z.
// The else branch is mandatory; the parser rejects its omission.
type IfExpr struct {
	Cond     Expr
	Then     Expr
	Elifs    []ElifBranch
	Else     Expr
	Position token.Position
}

func (*IfExpr) exprNode() {}

// Pos implements Node.
func (e *IfExpr) Pos() token.Position { return e.Position }
