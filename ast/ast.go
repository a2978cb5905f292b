package ast

import "github.com/tsl-lang/tsl/types"

// Module is a single parsed TSL translation unit (spec §3.3 top level).
type Module struct {
	Functions     []*FunctionDecl
	Structs       []*StructDecl
	GlobalVars    []*VarDecl
	TextureDecls  []*ResourceDecl
	ResourceDecls []*ResourceDecl
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() Span
}

// Decl is the interface for file-scope declarations.
type Decl interface {
	Node
	declNode()
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	exprNode()
}

// Lvalue is the sub-family of Expr that designates a storage slot
// (variable reference, array index, struct member access; spec §4.2).
type Lvalue interface {
	Expr
	lvalueNode()
}

// TypeExpr represents a declared type reference in source (a name plus
// optional array size), kept distinct from types.DataType because the
// parser cannot always resolve a struct name to a type at parse time.
type TypeExpr struct {
	Name string // "int", "float", "double", "bool", "vector"/"color"/"float3", "closure", "void", or a struct name
	Span Span
}

func (t *TypeExpr) Pos() Span { return t.Span }

// Metadata is a parsed-and-discarded <<< ... >>> marker (spec §4.1);
// retained as raw tokens for tooling but carries no runtime semantics.
type Metadata struct {
	Raw string
}

// StructDecl declares a structure type.
type StructDecl struct {
	Name    string
	Members []*StructMember
	Span    Span
}

func (s *StructDecl) Pos() Span { return s.Span }
func (s *StructDecl) declNode() {}

// StructMember is one field of a StructDecl.
type StructMember struct {
	Name string
	Type *TypeExpr
	Span Span
}

// Parameter is a function or shader parameter.
type Parameter struct {
	Name     string
	Type     *TypeExpr
	Flags    types.VarFlags
	Metadata *Metadata
	Span     Span
}

// FunctionDecl is a function prototype with an optional body (spec §4.6).
// IsShader marks the root function of a shader-unit template.
type FunctionDecl struct {
	Name       string
	Params     []*Parameter
	ReturnType *TypeExpr
	IsShader   bool
	Body       *BlockStmt // nil for a prototype with no body
	Span       Span
}

func (f *FunctionDecl) Pos() Span { return f.Span }
func (f *FunctionDecl) declNode() {}

// VarDecl declares a variable: local (single/array) or file-scope global.
type VarDecl struct {
	Name    string
	Type    *TypeExpr
	ArrSize Expr // nil unless this is an array declaration
	Init    Expr // nil if uninitialized
	Flags   types.VarFlags
	Span    Span
}

func (v *VarDecl) Pos() Span { return v.Span }
func (v *VarDecl) declNode() {}
func (v *VarDecl) stmtNode() {}

// ResourceDecl declares a texture2d or shader_resource handle (spec §4.5).
type ResourceDecl struct {
	Name       string
	IsTexture  bool // texture2d vs shader_resource
	Span       Span
}

func (r *ResourceDecl) Pos() Span { return r.Span }
func (r *ResourceDecl) declNode() {}
func (r *ResourceDecl) stmtNode() {}

// Statements

// BlockStmt is a brace-delimited sequence of statements.
type BlockStmt struct {
	Statements []Stmt
	Span       Span
}

func (b *BlockStmt) Pos() Span { return b.Span }
func (b *BlockStmt) stmtNode() {}

// ReturnStmt returns from the enclosing function, with or without a value.
type ReturnStmt struct {
	Value Expr // nil for a void return
	Span  Span
}

func (r *ReturnStmt) Pos() Span { return r.Span }
func (r *ReturnStmt) stmtNode() {}

// IfStmt is an if/else statement. Else may be nil, a *BlockStmt, or another *IfStmt.
type IfStmt struct {
	Condition Expr
	Then      *BlockStmt
	Else      Stmt
	Span      Span
}

func (i *IfStmt) Pos() Span { return i.Span }
func (i *IfStmt) stmtNode() {}

// WhileStmt is a pre-tested loop.
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Span      Span
}

func (w *WhileStmt) Pos() Span { return w.Span }
func (w *WhileStmt) stmtNode() {}

// DoWhileStmt is a post-tested loop.
type DoWhileStmt struct {
	Body      *BlockStmt
	Condition Expr
	Span      Span
}

func (d *DoWhileStmt) Pos() Span { return d.Span }
func (d *DoWhileStmt) stmtNode() {}

// ForStmt is a C-style for loop. Init/Condition/Update may each be nil.
type ForStmt struct {
	Init      Stmt
	Condition Expr
	Update    Stmt
	Body      *BlockStmt
	Span      Span
}

func (f *ForStmt) Pos() Span { return f.Span }
func (f *ForStmt) stmtNode() {}

// BreakStmt exits the innermost enclosing loop.
type BreakStmt struct{ Span Span }

func (b *BreakStmt) Pos() Span { return b.Span }
func (b *BreakStmt) stmtNode() {}

// ContinueStmt jumps to the innermost enclosing loop's continue target.
type ContinueStmt struct{ Span Span }

func (c *ContinueStmt) Pos() Span { return c.Span }
func (c *ContinueStmt) stmtNode() {}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X    Expr
	Span Span
}

func (e *ExprStmt) Pos() Span { return e.Span }
func (e *ExprStmt) stmtNode() {}

// Expressions

// IntLit is an integer literal.
type IntLit struct {
	Value int32
	Span  Span
}

func (l *IntLit) Pos() Span { return l.Span }
func (l *IntLit) exprNode() {}

// FloatLit is a 32-bit float literal.
type FloatLit struct {
	Value float32
	Span  Span
}

func (l *FloatLit) Pos() Span { return l.Span }
func (l *FloatLit) exprNode() {}

// DoubleLit is a 64-bit float literal.
type DoubleLit struct {
	Value float64
	Span  Span
}

func (l *DoubleLit) Pos() Span { return l.Span }
func (l *DoubleLit) exprNode() {}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
	Span  Span
}

func (l *BoolLit) Pos() Span { return l.Span }
func (l *BoolLit) exprNode() {}

// VarRef is a reference to a named variable. It is an Lvalue.
type VarRef struct {
	Name string
	Span Span
}

func (v *VarRef) Pos() Span   { return v.Span }
func (v *VarRef) exprNode()   {}
func (v *VarRef) lvalueNode() {}

// IndexExpr accesses an array element by a computed index. It is an Lvalue.
type IndexExpr struct {
	Base  Expr
	Index Expr
	Span  Span
}

func (i *IndexExpr) Pos() Span   { return i.Span }
func (i *IndexExpr) exprNode()   {}
func (i *IndexExpr) lvalueNode() {}

// MemberExpr accesses a struct field or float3 swizzle. It is an Lvalue
// for single-field access; multi-component swizzles are read-only (spec
// SUPPLEMENTED FEATURES) and rejected as an lvalue by the compiler, not
// by the grammar.
type MemberExpr struct {
	Base   Expr
	Member string
	Span   Span
}

func (m *MemberExpr) Pos() Span   { return m.Span }
func (m *MemberExpr) exprNode()   {}
func (m *MemberExpr) lvalueNode() {}

// BinaryExpr applies an infix binary operator.
type BinaryExpr struct {
	Op    TokenKind
	Left  Expr
	Right Expr
	Span  Span
}

func (b *BinaryExpr) Pos() Span { return b.Span }
func (b *BinaryExpr) exprNode() {}

// UnaryExpr applies a prefix unary operator (+, -, !, ~).
type UnaryExpr struct {
	Op      TokenKind
	Operand Expr
	Span    Span
}

func (u *UnaryExpr) Pos() Span { return u.Span }
func (u *UnaryExpr) exprNode() {}

// IncDecExpr is a pre/post increment or decrement of an lvalue.
type IncDecExpr struct {
	Op      TokenKind // TokenPlusPlus or TokenMinusMinus
	Operand Lvalue
	Prefix  bool
	Span    Span
}

func (i *IncDecExpr) Pos() Span { return i.Span }
func (i *IncDecExpr) exprNode() {}

// TernaryExpr is `cond ? then : else`, right-associative.
type TernaryExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Span Span
}

func (t *TernaryExpr) Pos() Span { return t.Span }
func (t *TernaryExpr) exprNode() {}

// AssignExpr is an assignment (=, +=, -=, ...), itself yielding the
// assigned value (spec §3.3).
type AssignExpr struct {
	Op    TokenKind
	Left  Lvalue
	Right Expr
	Span  Span
}

func (a *AssignExpr) Pos() Span { return a.Span }
func (a *AssignExpr) exprNode() {}

// CallExpr is a function call.
type CallExpr struct {
	Name string
	Args []Expr
	Span Span
}

func (c *CallExpr) Pos() Span { return c.Span }
func (c *CallExpr) exprNode() {}

// Float3Expr is a `float3(a, b, c)` (or vector/color spelling) constructor.
type Float3Expr struct {
	Args []Expr
	Span Span
}

func (f *Float3Expr) Pos() Span { return f.Span }
func (f *Float3Expr) exprNode() {}

// CastExpr is an explicit `(type)expr`-style conversion. TSL spells this
// as a call-like `int(x)` / `float(x)` / `double(x)` / `bool(x)`.
type CastExpr struct {
	Target *TypeExpr
	X      Expr
	Span   Span
}

func (c *CastExpr) Pos() Span { return c.Span }
func (c *CastExpr) exprNode() {}

// MakeClosureExpr is `make_closure<Name>(args...)`.
type MakeClosureExpr struct {
	Name string
	Args []Expr
	Span Span
}

func (m *MakeClosureExpr) Pos() Span { return m.Span }
func (m *MakeClosureExpr) exprNode() {}

// GlobalValueExpr is `global_value<field>`.
type GlobalValueExpr struct {
	Field string
	Span  Span
}

func (g *GlobalValueExpr) Pos() Span { return g.Span }
func (g *GlobalValueExpr) exprNode() {}

// TextureSampleExpr is `texture2d_sample<handle>(u, v)` or the _alpha variant.
type TextureSampleExpr struct {
	Handle string
	Alpha  bool
	U, V   Expr
	Span   Span
}

func (t *TextureSampleExpr) Pos() Span { return t.Span }
func (t *TextureSampleExpr) exprNode() {}
