package exec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

// eval dispatches one expression node, mirroring compiler.Lowerer's
// type-switch shape but walking ir.Expression to a runtime.Value instead
// of to another IR node.
func (e *engine) eval(fr *frame, expr ir.Expression) (runtime.Value, error) {
	switch x := expr.(type) {
	case ir.ConstInt:
		return runtime.Value{Type: types.Int, Int: x.Value}, nil
	case ir.ConstFloat:
		return runtime.Value{Type: types.Float, Float: x.Value}, nil
	case ir.ConstDouble:
		return runtime.Value{Type: types.Double, Double: x.Value}, nil
	case ir.ConstBool:
		return runtime.Value{Type: types.Bool, Bool: x.Value}, nil
	case ir.Float3Lit:
		xv, err := e.eval(fr, x.X)
		if err != nil {
			return runtime.Value{}, err
		}
		yv, err := e.eval(fr, x.Y)
		if err != nil {
			return runtime.Value{}, err
		}
		zv, err := e.eval(fr, x.Z)
		if err != nil {
			return runtime.Value{}, err
		}
		return runtime.Value{Type: types.Float3, Vec: runtime.Float3{X: asFloat32(xv), Y: asFloat32(yv), Z: asFloat32(zv)}}, nil
	case ir.LocalRef:
		v, ok := fr.locals[x.Name]
		if !ok {
			return runtime.Value{}, fmt.Errorf("internal error: undeclared local %q", x.Name)
		}
		return *v, nil
	case ir.ParamRef:
		return *fr.params[x.Index], nil
	case ir.GlobalRef:
		if x.Type.Kind == types.KindResource {
			return runtime.Value{Type: x.Type, Resource: e.program.resources[x.Name]}, nil
		}
		v, ok := e.globals[x.Name]
		if !ok {
			return runtime.Value{}, fmt.Errorf("internal error: undeclared global %q", x.Name)
		}
		return *v, nil
	case ir.FieldAccess:
		base, err := e.eval(fr, x.Base)
		if err != nil {
			return runtime.Value{}, err
		}
		return readField(base, x.Field)
	case ir.IndexAccess:
		base, err := e.eval(fr, x.Base)
		if err != nil {
			return runtime.Value{}, err
		}
		idx, err := e.eval(fr, x.Index)
		if err != nil {
			return runtime.Value{}, err
		}
		return readIndex(base, asInt32(idx))
	case ir.Unary:
		return e.evalUnary(fr, x)
	case ir.Binary:
		return e.evalBinary(fr, x)
	case ir.Ternary:
		cond, err := e.eval(fr, x.Cond)
		if err != nil {
			return runtime.Value{}, err
		}
		if truthy(cond) {
			return e.eval(fr, x.Then)
		}
		return e.eval(fr, x.Else)
	case ir.AssignExpr:
		v, err := e.eval(fr, x.Value)
		if err != nil {
			return runtime.Value{}, err
		}
		if err := e.store(fr, x.Target, v); err != nil {
			return runtime.Value{}, err
		}
		return v, nil
	case ir.IncDec:
		cur, err := e.load(fr, x.Target)
		if err != nil {
			return runtime.Value{}, err
		}
		updated := runtime.Value{Type: x.Type, Int: cur.Int + x.Delta}
		if err := e.store(fr, x.Target, updated); err != nil {
			return runtime.Value{}, err
		}
		if x.Prefix {
			return updated, nil
		}
		return cur, nil
	case ir.Cast:
		v, err := e.eval(fr, x.X)
		if err != nil {
			return runtime.Value{}, err
		}
		return castValue(x.Target, v), nil
	case ir.Call:
		return e.evalCall(fr, x)
	case ir.ClosureAdd:
		left, err := e.eval(fr, x.Left)
		if err != nil {
			return runtime.Value{}, err
		}
		right, err := e.eval(fr, x.Right)
		if err != nil {
			return runtime.Value{}, err
		}
		node := closure.ConstructAdd(e.alloc(), asBase(left), asBase(right))
		return runtime.Value{Type: types.Closure, Closure: node}, nil
	case ir.ClosureMul:
		weight, err := e.eval(fr, x.Weight)
		if err != nil {
			return runtime.Value{}, err
		}
		child, err := e.eval(fr, x.Child)
		if err != nil {
			return runtime.Value{}, err
		}
		node := closure.ConstructMul(e.alloc(), asFloat32(weight), asBase(child))
		return runtime.Value{Type: types.Closure, Closure: node}, nil
	case ir.MakeClosure:
		return e.evalMakeClosure(fr, x)
	case ir.GlobalValueField:
		if e.global == nil {
			return zeroGlobalField(x.Type), nil
		}
		if v, ok := e.global[x.Field]; ok {
			return v, nil
		}
		return zeroGlobalField(x.Type), nil
	case ir.TextureSample:
		return e.evalTextureSample(fr, x)
	default:
		return runtime.Value{}, fmt.Errorf("internal error: unhandled expression type %T", expr)
	}
}

func zeroGlobalField(t types.DataType) runtime.Value {
	switch t.Kind {
	case types.KindInt:
		return runtime.Value{Type: types.Int}
	case types.KindFloat:
		return runtime.Value{Type: types.Float}
	case types.KindDouble:
		return runtime.Value{Type: types.Double}
	case types.KindBool:
		return runtime.Value{Type: types.Bool}
	default:
		return runtime.Value{Type: t}
	}
}

func (e *engine) evalUnary(fr *frame, u ir.Unary) (runtime.Value, error) {
	x, err := e.eval(fr, u.X)
	if err != nil {
		return runtime.Value{}, err
	}
	switch u.Op {
	case ir.OpNeg:
		if x.Type.Equal(types.Float3) {
			return runtime.Value{Type: types.Float3, Vec: x.Vec.Neg()}, nil
		}
		switch x.Type.Kind {
		case types.KindInt:
			return runtime.Value{Type: types.Int, Int: -x.Int}, nil
		case types.KindFloat:
			return runtime.Value{Type: types.Float, Float: -x.Float}, nil
		default:
			return runtime.Value{Type: types.Double, Double: -x.Double}, nil
		}
	case ir.OpPos:
		return x, nil
	case ir.OpNot:
		return runtime.Value{Type: types.Bool, Bool: !truthy(x)}, nil
	case ir.OpBitNot:
		return runtime.Value{Type: types.Int, Int: ^x.Int}, nil
	default:
		return runtime.Value{}, fmt.Errorf("internal error: unhandled unary operator")
	}
}

func (e *engine) evalBinary(fr *frame, b ir.Binary) (runtime.Value, error) {
	l, err := e.eval(fr, b.L)
	if err != nil {
		return runtime.Value{}, err
	}
	r, err := e.eval(fr, b.R)
	if err != nil {
		return runtime.Value{}, err
	}

	if l.Type.Equal(types.Float3) || r.Type.Equal(types.Float3) {
		return evalFloat3Binary(b.Op, l, r)
	}

	switch b.Op {
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		return evalCompare(b.Op, l, r)
	case ir.OpLogAnd:
		return runtime.Value{Type: types.Bool, Bool: truthy(l) && truthy(r)}, nil
	case ir.OpLogOr:
		return runtime.Value{Type: types.Bool, Bool: truthy(l) || truthy(r)}, nil
	case ir.OpBitAnd:
		return runtime.Value{Type: types.Int, Int: l.Int & r.Int}, nil
	case ir.OpBitOr:
		return runtime.Value{Type: types.Int, Int: l.Int | r.Int}, nil
	case ir.OpBitXor:
		return runtime.Value{Type: types.Int, Int: l.Int ^ r.Int}, nil
	case ir.OpShl:
		return runtime.Value{Type: types.Int, Int: l.Int << uint32(r.Int)}, nil
	case ir.OpShr:
		return runtime.Value{Type: types.Int, Int: l.Int >> uint32(r.Int)}, nil
	}

	switch b.Type.Kind {
	case types.KindDouble:
		lv, rv := asFloat64(l), asFloat64(r)
		return runtime.Value{Type: types.Double, Double: evalArith(b.Op, lv, rv)}, nil
	case types.KindFloat:
		lv, rv := asFloat32(l), asFloat32(r)
		return runtime.Value{Type: types.Float, Float: float32(evalArith(b.Op, float64(lv), float64(rv)))}, nil
	default:
		lv, rv := l.Int, r.Int
		switch b.Op {
		case ir.OpMod:
			return runtime.Value{Type: types.Int, Int: lv % rv}, nil
		case ir.OpAdd:
			return runtime.Value{Type: types.Int, Int: lv + rv}, nil
		case ir.OpSub:
			return runtime.Value{Type: types.Int, Int: lv - rv}, nil
		case ir.OpMul:
			return runtime.Value{Type: types.Int, Int: lv * rv}, nil
		}
		return runtime.Value{Type: types.Int, Int: int32(evalArith(b.Op, float64(lv), float64(rv)))}, nil
	}
}

func evalArith(op ir.BinaryOp, l, r float64) float64 {
	switch op {
	case ir.OpAdd:
		return l + r
	case ir.OpSub:
		return l - r
	case ir.OpMul:
		return l * r
	case ir.OpDiv:
		return l / r
	case ir.OpMod:
		return math.Mod(l, r)
	default:
		return 0
	}
}

func evalCompare(op ir.BinaryOp, l, r runtime.Value) (runtime.Value, error) {
	lv, rv := asFloat64(l), asFloat64(r)
	var res bool
	switch op {
	case ir.OpEq:
		res = lv == rv
	case ir.OpNe:
		res = lv < rv || lv > rv
	case ir.OpLt:
		res = lv < rv
	case ir.OpLe:
		res = lv <= rv
	case ir.OpGt:
		res = lv > rv
	case ir.OpGe:
		res = lv >= rv
	}
	return runtime.Value{Type: types.Bool, Bool: res}, nil
}

func evalFloat3Binary(op ir.BinaryOp, l, r runtime.Value) (runtime.Value, error) {
	if !l.Type.Equal(types.Float3) {
		l = runtime.Value{Type: types.Float3, Vec: runtime.Float3{X: asFloat32(l), Y: asFloat32(l), Z: asFloat32(l)}}
	}
	if !r.Type.Equal(types.Float3) {
		r = runtime.Value{Type: types.Float3, Vec: runtime.Float3{X: asFloat32(r), Y: asFloat32(r), Z: asFloat32(r)}}
	}
	var vec runtime.Float3
	switch op {
	case ir.OpAdd:
		vec = l.Vec.Add(r.Vec)
	case ir.OpSub:
		vec = l.Vec.Sub(r.Vec)
	case ir.OpMul:
		vec = l.Vec.Mul(r.Vec)
	case ir.OpDiv:
		vec = l.Vec.Div(r.Vec)
	default:
		return runtime.Value{}, fmt.Errorf("internal error: unsupported float3 binary operator")
	}
	return runtime.Value{Type: types.Float3, Vec: vec}, nil
}

// evalCall invokes a user function or a built-in intrinsic. OUTPUT
// arguments are passed by writing back into their bound lvalue after the
// callee returns (spec §4.6). The callee's OUTPUT parameter starts at its
// type's zero value; it does not see the caller's current value.
func (e *engine) evalCall(fr *frame, c ir.Call) (runtime.Value, error) {
	if fn, ok := e.program.funcs[c.Name]; ok {
		return e.invokeFunction(fr, fn, c)
	}
	intr, ok := runtime.Builtins[c.Name]
	if !ok {
		return runtime.Value{}, fmt.Errorf("undefined function %q", c.Name)
	}
	args := make([]runtime.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := e.eval(fr, a)
		if err != nil {
			return runtime.Value{}, err
		}
		args[i] = v
	}
	return intr.Eval(args)
}

func (e *engine) invokeFunction(fr *frame, fn *ir.Function, c ir.Call) (runtime.Value, error) {
	args := make([]runtime.Value, len(fn.Params))
	for i := range fn.Params {
		if c.OutArgs != nil {
			if _, isOut := c.OutArgs[i]; isOut {
				args[i] = e.zeroValue(fn.Params[i].Type)
				continue
			}
		}
		v, err := e.eval(fr, c.Args[i])
		if err != nil {
			return runtime.Value{}, err
		}
		args[i] = v
	}
	callee := e.newFrame(fn, args)
	sig, err := e.execBlock(callee, fn.Body)
	if err != nil {
		return runtime.Value{}, fmt.Errorf("%s: %w", fn.Name, err)
	}
	for i, target := range c.OutArgs {
		if err := e.store(fr, target, *callee.params[i]); err != nil {
			return runtime.Value{}, err
		}
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return e.zeroValue(fn.ReturnType), nil
}

func (e *engine) evalMakeClosure(fr *frame, m ir.MakeClosure) (runtime.Value, error) {
	desc, ok := e.program.closures.Lookup(m.ClosureName)
	if !ok {
		return runtime.Value{}, fmt.Errorf("unknown closure type %q", m.ClosureName)
	}
	fieldBytes := make([][]byte, len(m.Args))
	for i, a := range m.Args {
		v, err := e.eval(fr, a)
		if err != nil {
			return runtime.Value{}, err
		}
		fieldBytes[i] = encodeValue(v)
	}
	base, _, err := closure.Construct(desc, e.alloc(), fieldBytes)
	if err != nil {
		return runtime.Value{}, err
	}
	return runtime.Value{Type: types.Closure, Closure: base}, nil
}

func (e *engine) evalTextureSample(fr *frame, t ir.TextureSample) (runtime.Value, error) {
	u, err := e.eval(fr, t.U)
	if err != nil {
		return runtime.Value{}, err
	}
	v, err := e.eval(fr, t.V)
	if err != nil {
		return runtime.Value{}, err
	}
	if e.host == nil {
		return runtime.Value{}, fmt.Errorf("texture2d_sample<%s>: no host callback configured", t.Handle)
	}
	handle := e.program.resources[t.Handle]
	if t.Alpha {
		return runtime.Value{Type: types.Float, Float: e.host.SampleAlpha2D(handle, asFloat32(u), asFloat32(v))}, nil
	}
	return runtime.Value{Type: types.Float3, Vec: e.host.Sample2D(handle, asFloat32(u), asFloat32(v))}, nil
}

// alloc adapts the host callback's Allocate to package closure's
// Allocator interface.
func (e *engine) alloc() closure.Allocator { return hostAllocator{e.host} }

type hostAllocator struct{ host runtime.HostCallback }

func (a hostAllocator) Allocate(size int) []byte {
	if a.host == nil {
		return make([]byte, size)
	}
	return a.host.Allocate(uint32(size))
}

func asBase(v runtime.Value) *closure.Base {
	b, _ := v.Closure.(*closure.Base)
	return b
}

// encodeValue serializes a Value's scalar payload into the little-endian
// byte layout closure.Construct copies into a closure's params block
// (spec §4.7; layout matches closure.Base/Add/Mul's native Go struct
// layout so a host callback reading raw closure memory sees the same
// bytes it would from the original C++ implementation on a little-endian
// target).
func encodeValue(v runtime.Value) []byte {
	switch v.Type.Kind {
	case types.KindInt:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.Int))
		return b
	case types.KindFloat:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(v.Float))
		return b
	case types.KindDouble:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.Double))
		return b
	case types.KindBool:
		b := make([]byte, 4)
		if v.Bool {
			binary.LittleEndian.PutUint32(b, 1)
		}
		return b
	case types.KindStruct:
		b := make([]byte, 12)
		binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.Vec.X))
		binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Vec.Y))
		binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Vec.Z))
		return b
	case types.KindClosure, types.KindResource:
		b := make([]byte, unsafe.Sizeof(uintptr(0)))
		var ptr uintptr
		if base, ok := v.Closure.(*closure.Base); ok {
			ptr = uintptr(unsafe.Pointer(base))
		}
		*(*uintptr)(unsafe.Pointer(&b[0])) = ptr
		return b
	default:
		return nil
	}
}
