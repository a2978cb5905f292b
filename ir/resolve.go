package ir

import (
	"fmt"

	"github.com/tsl-lang/tsl/types"
)

// ResolveBinary computes the result type of a binary operation, applying
// TSL's numeric promotion rule (int < float < double, spec §4.4) and the
// float3 component-wise/scalar-broadcast rule. Comparison and logical
// operators always resolve to bool.
func ResolveBinary(op BinaryOp, lt, rt types.DataType) (types.DataType, error) {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLogAnd, OpLogOr:
		return types.Bool, nil
	}

	if lt.Equal(types.Float3) || rt.Equal(types.Float3) {
		if op != OpAdd && op != OpSub && op != OpMul && op != OpDiv {
			return types.DataType{}, fmt.Errorf("float3 operands support only +, -, * and /")
		}
		if lt.Equal(types.Float3) && rt.Equal(types.Float3) {
			return types.Float3, nil
		}
		// scalar * float3 / float3 * scalar broadcast (+, -, *, / only).
		other := lt
		if lt.Equal(types.Float3) {
			other = rt
		}
		if !other.IsNumeric() {
			return types.DataType{}, fmt.Errorf("float3 may only combine with a numeric scalar, got %s", other)
		}
		return types.Float3, nil
	}

	if lt.Kind == types.KindClosure || rt.Kind == types.KindClosure {
		return types.DataType{}, fmt.Errorf("closure values only support + between closures and * with a scalar weight")
	}

	if !lt.IsNumeric() || !rt.IsNumeric() {
		return types.DataType{}, fmt.Errorf("operator requires numeric operands, got %s and %s", lt, rt)
	}
	return promote(lt, rt), nil
}

// Promote returns the wider of two numeric types: double > float > int.
// Exported for package compiler's ternary-branch and cast-insertion logic.
func Promote(a, b types.DataType) types.DataType { return promote(a, b) }

// promote returns the wider of two numeric types: double > float > int.
func promote(a, b types.DataType) types.DataType {
	rank := func(t types.DataType) int {
		switch t.Kind {
		case types.KindDouble:
			return 3
		case types.KindFloat:
			return 2
		case types.KindInt:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}
