package exec

import (
	"fmt"

	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

// zeroValue builds the default value of t, recursing into a user struct's
// declared members (float3 is the one built-in struct and needs no
// member table — it is represented by Value.Vec directly).
func (e *engine) zeroValue(t types.DataType) runtime.Value {
	switch t.Kind {
	case types.KindInt:
		return runtime.Value{Type: types.Int}
	case types.KindFloat:
		return runtime.Value{Type: types.Float}
	case types.KindDouble:
		return runtime.Value{Type: types.Double}
	case types.KindBool:
		return runtime.Value{Type: types.Bool}
	case types.KindClosure:
		return runtime.Value{Type: types.Closure}
	case types.KindStruct:
		if t.Equal(types.Float3) {
			return runtime.Value{Type: t}
		}
		v := runtime.Value{Type: t, Fields: make(map[string]runtime.Value)}
		for _, m := range e.program.structs[t.StructName] {
			v.Fields[m.Name] = e.zeroValue(m.Type)
		}
		return v
	default:
		return runtime.Value{Type: t}
	}
}

// truthy coerces a Value to a Go bool for control-flow conditions, `!`,
// `&&` and `||`: a numeric value is true when non-zero, anything else
// uses its Bool field.
func truthy(v runtime.Value) bool {
	switch v.Type.Kind {
	case types.KindInt:
		return v.Int != 0
	case types.KindFloat:
		return v.Float != 0
	case types.KindDouble:
		return v.Double != 0
	default:
		return v.Bool
	}
}

func asFloat32(v runtime.Value) float32 {
	switch v.Type.Kind {
	case types.KindInt:
		return float32(v.Int)
	case types.KindDouble:
		return float32(v.Double)
	default:
		return v.Float
	}
}

func asFloat64(v runtime.Value) float64 {
	switch v.Type.Kind {
	case types.KindInt:
		return float64(v.Int)
	case types.KindFloat:
		return float64(v.Float)
	default:
		return v.Double
	}
}

func asInt32(v runtime.Value) int32 {
	switch v.Type.Kind {
	case types.KindFloat:
		return int32(v.Float)
	case types.KindDouble:
		return int32(v.Double)
	default:
		return v.Int
	}
}

// castValue converts v to the target primitive kind (spec §4.4 explicit
// numeric casts); target is never KindStruct/KindClosure — the lowerer
// rejects those casts before this runs.
func castValue(target types.DataType, v runtime.Value) runtime.Value {
	switch target.Kind {
	case types.KindInt:
		return runtime.Value{Type: types.Int, Int: asInt32(v)}
	case types.KindFloat:
		return runtime.Value{Type: types.Float, Float: asFloat32(v)}
	case types.KindDouble:
		return runtime.Value{Type: types.Double, Double: asFloat64(v)}
	case types.KindBool:
		b := v.Bool
		switch v.Type.Kind {
		case types.KindInt:
			b = v.Int != 0
		case types.KindFloat:
			b = v.Float != 0
		case types.KindDouble:
			b = v.Double != 0
		}
		return runtime.Value{Type: types.Bool, Bool: b}
	default:
		return v
	}
}

// readField reads a struct member or float3 component/swizzle.
func readField(base runtime.Value, field string) (runtime.Value, error) {
	if base.Type.Equal(types.Float3) {
		if _, ok := types.Float3Fields[field]; !ok {
			return runtime.Value{}, fmt.Errorf("float3 has no field %q", field)
		}
		return runtime.Value{Type: types.Float, Float: base.Vec.Component(field)}, nil
	}
	v, ok := base.Fields[field]
	if !ok {
		return runtime.Value{}, fmt.Errorf("struct %q has no field %q", base.Type.StructName, field)
	}
	return v, nil
}

// writeField returns base with field set to v (Value is a plain struct,
// not individually addressable, so writes go through a copy-then-replace
// at every level of the lvalue chain — see engine.store).
func writeField(base runtime.Value, field string, v runtime.Value) (runtime.Value, error) {
	if base.Type.Equal(types.Float3) {
		if _, ok := types.Float3Fields[field]; !ok {
			return runtime.Value{}, fmt.Errorf("float3 has no field %q", field)
		}
		base.Vec = base.Vec.WithComponent(field, v.Float)
		return base, nil
	}
	if base.Fields == nil {
		return runtime.Value{}, fmt.Errorf("struct %q has no field %q", base.Type.StructName, field)
	}
	fields := make(map[string]runtime.Value, len(base.Fields))
	for k, fv := range base.Fields {
		fields[k] = fv
	}
	fields[field] = v
	base.Fields = fields
	return base, nil
}
