package runtime

import (
	"fmt"

	math "github.com/chewxy/math32"

	"github.com/tsl-lang/tsl/types"
)

// Intrinsic describes one built-in function callable from a shader body
// without a user declaration (spec SUPPLEMENTED FEATURES).
type Intrinsic struct {
	Name    string
	Arity   int
	Resolve func(args []types.DataType) (types.DataType, error)
	Eval    func(args []Value) (Value, error)
}

// Value is a tagged runtime value used by package exec's tree-walking
// evaluator. Exactly one of the fields is meaningful, selected by Type.Kind.
type Value struct {
	Type     types.DataType
	Int      int32
	Float    float32
	Double   float64
	Bool     bool
	Vec      Float3
	Closure  interface{}      // *closure.Base, kept as interface{} to avoid an import cycle
	Resource interface{}      // opaque handle registered by the host (spec §4.5)
	Arr      []Value          // backing storage when Type describes an array element
	Fields   map[string]Value // backing storage for a user struct (KindStruct, not float3)
}

func sameAsFirst(args []types.DataType) (types.DataType, error) {
	if len(args) == 0 {
		return types.DataType{}, fmt.Errorf("expects at least one argument")
	}
	return args[0], nil
}

func toFloatScalar(args []types.DataType) (types.DataType, error) {
	return types.Float, nil
}

// Builtins maps intrinsic name to its signature/evaluator. Populated by
// this file's init function.
var Builtins = map[string]*Intrinsic{}

func register(name string, arity int, resolve func([]types.DataType) (types.DataType, error), eval func([]Value) (Value, error)) {
	Builtins[name] = &Intrinsic{Name: name, Arity: arity, Resolve: resolve, Eval: eval}
}

func unaryFloat(fn func(float32) float32) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		v := args[0]
		switch v.Type.Kind {
		case types.KindFloat, types.KindInt:
			return Value{Type: types.Float, Float: fn(asFloat(v))}, nil
		case types.KindStruct:
			return Value{Type: types.Float3, Vec: Float3{fn(v.Vec.X), fn(v.Vec.Y), fn(v.Vec.Z)}}, nil
		default:
			return Value{}, fmt.Errorf("unsupported argument type %s", v.Type)
		}
	}
}

func asFloat(v Value) float32 {
	switch v.Type.Kind {
	case types.KindInt:
		return float32(v.Int)
	case types.KindDouble:
		return float32(v.Double)
	default:
		return v.Float
	}
}

func init() {
	register("sin", 1, sameAsFirst, unaryFloat(math.Sin))
	register("cos", 1, sameAsFirst, unaryFloat(math.Cos))
	register("tan", 1, sameAsFirst, unaryFloat(math.Tan))
	register("sqrt", 1, sameAsFirst, unaryFloat(math.Sqrt))
	register("exp", 1, sameAsFirst, unaryFloat(math.Exp))
	register("log", 1, sameAsFirst, unaryFloat(math.Log))
	register("floor", 1, sameAsFirst, unaryFloat(math.Floor))
	register("ceil", 1, sameAsFirst, unaryFloat(math.Ceil))
	register("abs", 1, sameAsFirst, func(args []Value) (Value, error) {
		v := args[0]
		if v.Type.Kind == types.KindInt {
			n := v.Int
			if n < 0 {
				n = -n
			}
			return Value{Type: types.Int, Int: n}, nil
		}
		return unaryFloat(math.Abs)(args)
	})

	register("pow", 2, sameAsFirst, func(args []Value) (Value, error) {
		return Value{Type: types.Float, Float: math.Pow(asFloat(args[0]), asFloat(args[1]))}, nil
	})
	register("min", 2, promote2, func(args []Value) (Value, error) {
		if asFloat(args[0]) < asFloat(args[1]) {
			return args[0], nil
		}
		return args[1], nil
	})
	register("max", 2, promote2, func(args []Value) (Value, error) {
		if asFloat(args[0]) > asFloat(args[1]) {
			return args[0], nil
		}
		return args[1], nil
	})
	register("clamp", 3, sameAsFirst, func(args []Value) (Value, error) {
		return Value{Type: types.Float, Float: Clamp(asFloat(args[0]), asFloat(args[1]), asFloat(args[2]))}, nil
	})
	register("lerp", 3, sameAsFirst, func(args []Value) (Value, error) {
		if args[0].Type.Equal(types.Float3) {
			return Value{Type: types.Float3, Vec: LerpFloat3(args[0].Vec, args[1].Vec, asFloat(args[2]))}, nil
		}
		return Value{Type: types.Float, Float: Lerp(asFloat(args[0]), asFloat(args[1]), asFloat(args[2]))}, nil
	})
	register("mix", 3, sameAsFirst, Builtins["lerp"].Eval)

	register("dot", 2, toFloatScalar, func(args []Value) (Value, error) {
		return Value{Type: types.Float, Float: args[0].Vec.Dot(args[1].Vec)}, nil
	})
	register("cross", 2, func(args []types.DataType) (types.DataType, error) { return types.Float3, nil },
		func(args []Value) (Value, error) {
			return Value{Type: types.Float3, Vec: args[0].Vec.Cross(args[1].Vec)}, nil
		})
	register("normalize", 1, sameAsFirst, func(args []Value) (Value, error) {
		return Value{Type: types.Float3, Vec: args[0].Vec.Normalize()}, nil
	})
	register("length", 1, toFloatScalar, func(args []Value) (Value, error) {
		return Value{Type: types.Float, Float: args[0].Vec.Length()}, nil
	})
	register("reflect", 2, func(args []types.DataType) (types.DataType, error) { return types.Float3, nil },
		func(args []Value) (Value, error) {
			return Value{Type: types.Float3, Vec: Reflect(args[0].Vec, args[1].Vec)}, nil
		})
	register("refract", 3, func(args []types.DataType) (types.DataType, error) { return types.Float3, nil },
		func(args []Value) (Value, error) {
			return Value{Type: types.Float3, Vec: Refract(args[0].Vec, args[1].Vec, asFloat(args[2]))}, nil
		})
}

func promote2(args []types.DataType) (types.DataType, error) {
	if len(args) != 2 {
		return types.DataType{}, fmt.Errorf("expects 2 arguments")
	}
	if args[0].Equal(types.Double) || args[1].Equal(types.Double) {
		return types.Double, nil
	}
	if args[0].Equal(types.Float) || args[1].Equal(types.Float) {
		return types.Float, nil
	}
	return types.Int, nil
}
