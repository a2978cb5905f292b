package ir

import "github.com/tsl-lang/tsl/types"

// Expression is the sum type of all lowered expression kinds, following
// naga's marker-method pattern: implementations carry no shared fields,
// just a private method that restricts the interface to this package's
// intended members.
type Expression interface {
	exprNode()
	ResultType() types.DataType
}

// BinaryOp enumerates lowered binary operators (spec §4.4).
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogAnd
	OpLogOr
)

// UnaryOp enumerates lowered unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
	OpBitNot
)

// ConstInt is a 32-bit integer literal.
type ConstInt struct{ Value int32 }

func (ConstInt) exprNode()                     {}
func (ConstInt) ResultType() types.DataType    { return types.Int }

// ConstFloat is a 32-bit float literal.
type ConstFloat struct{ Value float32 }

func (ConstFloat) exprNode()                  {}
func (ConstFloat) ResultType() types.DataType { return types.Float }

// ConstDouble is a 64-bit float literal.
type ConstDouble struct{ Value float64 }

func (ConstDouble) exprNode()                  {}
func (ConstDouble) ResultType() types.DataType { return types.Double }

// ConstBool is a boolean literal.
type ConstBool struct{ Value bool }

func (ConstBool) exprNode()                  {}
func (ConstBool) ResultType() types.DataType { return types.Bool }

// Float3Lit constructs a float3 from three scalar components (spec §4.1
// float3(...), with broadcast/zero-fill handled at lowering time so that
// by the time this node exists it always has exactly three components).
type Float3Lit struct{ X, Y, Z Expression }

func (Float3Lit) exprNode()                  {}
func (Float3Lit) ResultType() types.DataType { return types.Float3 }

// LocalRef reads a local variable by name (resolved, not scope-searched,
// at execution time — name resolution happened during lowering).
type LocalRef struct {
	Name string
	Type types.DataType
}

func (l LocalRef) exprNode()                  {}
func (l LocalRef) ResultType() types.DataType { return l.Type }

// ParamRef reads a function parameter by index.
type ParamRef struct {
	Index int
	Name  string
	Type  types.DataType
}

func (p ParamRef) exprNode()                  {}
func (p ParamRef) ResultType() types.DataType { return p.Type }

// GlobalRef reads a file-scope global variable.
type GlobalRef struct {
	Name string
	Type types.DataType
}

func (g GlobalRef) exprNode()                  {}
func (g GlobalRef) ResultType() types.DataType { return g.Type }

// FieldAccess reads a struct member or float3 swizzle component(s).
type FieldAccess struct {
	Base  Expression
	Field string
	Type  types.DataType
}

func (f FieldAccess) exprNode()                  {}
func (f FieldAccess) ResultType() types.DataType { return f.Type }

// IndexAccess reads an array element by a computed index.
type IndexAccess struct {
	Base  Expression
	Index Expression
	Type  types.DataType
}

func (i IndexAccess) exprNode()                  {}
func (i IndexAccess) ResultType() types.DataType { return i.Type }

// Unary applies a resolved unary operator.
type Unary struct {
	Op   UnaryOp
	X    Expression
	Type types.DataType
}

func (u Unary) exprNode()                  {}
func (u Unary) ResultType() types.DataType { return u.Type }

// Binary applies a resolved binary operator, including float3 component-wise
// arithmetic with scalar broadcast (spec §4.4).
type Binary struct {
	Op    BinaryOp
	L, R  Expression
	Type  types.DataType
}

func (b Binary) exprNode()                  {}
func (b Binary) ResultType() types.DataType { return b.Type }

// Ternary is a resolved conditional expression.
type Ternary struct {
	Cond, Then, Else Expression
	Type             types.DataType
}

func (t Ternary) exprNode()                  {}
func (t Ternary) ResultType() types.DataType { return t.Type }

// Call invokes a previously declared function or a built-in intrinsic
// (package runtime), resolved by name at lowering time.
type Call struct {
	Name string
	Args []Expression
	Type types.DataType
	// OutArgs maps argument index to the Lvalue supplying storage for an
	// OUTPUT parameter (spec §4.6); Args[i] is left nil at that index.
	OutArgs map[int]Lvalue
}

func (c Call) exprNode()                  {}
func (c Call) ResultType() types.DataType { return c.Type }

// AssignExpr is an assignment used in expression position (spec §3.3: all
// assignment forms yield the stored value). Value is already the fully
// resolved value to store — compound-operator desugaring and truncating
// casts happen at lowering time, before this node is built.
type AssignExpr struct {
	Target Lvalue
	Value  Expression
	Type   types.DataType
}

func (a AssignExpr) exprNode()                  {}
func (a AssignExpr) ResultType() types.DataType { return a.Type }

// IncDec lowers a pre/post increment or decrement of an integer lvalue.
// Prefix forms evaluate to the updated value; postfix forms evaluate to
// the value before mutation (spec §4.4).
type IncDec struct {
	Target Lvalue
	Delta  int32 // +1 or -1
	Prefix bool
	Type   types.DataType
}

func (i IncDec) exprNode()                  {}
func (i IncDec) ResultType() types.DataType { return i.Type }

// Cast is an explicit numeric conversion.
type Cast struct {
	Target types.DataType
	X      Expression
}

func (c Cast) exprNode()                  {}
func (c Cast) ResultType() types.DataType { return c.Target }

// ClosureAdd lowers `a + b` where both operands are closures (spec §4.7).
type ClosureAdd struct{ Left, Right Expression }

func (ClosureAdd) exprNode()                  {}
func (ClosureAdd) ResultType() types.DataType { return types.Closure }

// ClosureMul lowers `weight * closure` / `closure * weight` (spec §4.7).
type ClosureMul struct {
	Weight Expression
	Child  Expression
}

func (ClosureMul) exprNode()                  {}
func (ClosureMul) ResultType() types.DataType { return types.Closure }

// MakeClosure lowers `make_closure<Name>(args...)` to a construction call
// against the closure registry (package closure).
type MakeClosure struct {
	ClosureName string
	Args        []Expression
}

func (MakeClosure) exprNode()                  {}
func (MakeClosure) ResultType() types.DataType { return types.Closure }

// GlobalValueField lowers `global_value<field>` (spec §6.2 TSL-global).
type GlobalValueField struct {
	Field string
	Type  types.DataType
}

func (g GlobalValueField) exprNode()                  {}
func (g GlobalValueField) ResultType() types.DataType { return g.Type }

// TextureSample lowers `texture2d_sample<h>(u, v)` / the _alpha variant to
// a host-callback invocation (spec §6.1 Sample2D / SampleAlpha2D).
type TextureSample struct {
	Handle string
	Alpha  bool
	U, V   Expression
}

func (t TextureSample) exprNode() {}
func (t TextureSample) ResultType() types.DataType {
	if t.Alpha {
		return types.Float
	}
	return types.Float3
}
