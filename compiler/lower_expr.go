package compiler

import (
	"fmt"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

// lowerExpr dispatches one expression node, mirroring wgsl.Lowerer's
// lowerExpression type switch (wgsl/lower.go) but over TSL's expression
// vocabulary and always returning a fully typed ir.Expression.
func (l *Lowerer) lowerExpr(e ast.Expr) (ir.Expression, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		return ir.ConstInt{Value: x.Value}, nil
	case *ast.FloatLit:
		return ir.ConstFloat{Value: x.Value}, nil
	case *ast.DoubleLit:
		return ir.ConstDouble{Value: x.Value}, nil
	case *ast.BoolLit:
		return ir.ConstBool{Value: x.Value}, nil
	case *ast.VarRef:
		return l.lowerVarRef(x)
	case *ast.IndexExpr:
		return l.lowerIndex(x)
	case *ast.MemberExpr:
		return l.lowerMember(x)
	case *ast.BinaryExpr:
		return l.lowerBinary(x)
	case *ast.UnaryExpr:
		return l.lowerUnary(x)
	case *ast.IncDecExpr:
		return l.lowerIncDec(x)
	case *ast.TernaryExpr:
		return l.lowerTernary(x)
	case *ast.AssignExpr:
		return l.lowerAssign(x)
	case *ast.CallExpr:
		return l.lowerCall(x)
	case *ast.Float3Expr:
		return l.lowerFloat3(x)
	case *ast.CastExpr:
		return l.lowerCast(x)
	case *ast.MakeClosureExpr:
		return l.lowerMakeClosure(x)
	case *ast.GlobalValueExpr:
		return l.lowerGlobalValue(x)
	case *ast.TextureSampleExpr:
		return l.lowerTextureSample(x)
	default:
		return nil, fmt.Errorf("internal error: unhandled expression type %T", e)
	}
}

func (l *Lowerer) lowerVarRef(v *ast.VarRef) (ir.Expression, error) {
	if _, ok := l.ctx.LookupResource(v.Name); ok {
		return nil, fmt.Errorf("resource %q cannot be used as a value; it may only appear inside texture2d_sample<> or make_closure<> arguments", v.Name)
	}
	sym, ok := l.ctx.Resolve(v.Name)
	if !ok {
		return nil, fmt.Errorf("undefined variable %q", v.Name)
	}
	switch sym.Kind {
	case SymParam:
		return ir.ParamRef{Index: sym.Index, Name: sym.Name, Type: sym.Type}, nil
	case SymGlobal:
		return ir.GlobalRef{Name: sym.Name, Type: sym.Type}, nil
	default:
		return ir.LocalRef{Name: sym.IRName, Type: sym.Type}, nil
	}
}

func (l *Lowerer) lowerIndex(i *ast.IndexExpr) (ir.Expression, error) {
	base, err := l.lowerExpr(i.Base)
	if err != nil {
		return nil, err
	}
	idx, err := l.lowerExpr(i.Index)
	if err != nil {
		return nil, err
	}
	if !idx.ResultType().IsInteger() {
		return nil, fmt.Errorf("array index must be an integer expression")
	}
	return ir.IndexAccess{Base: base, Index: idx, Type: base.ResultType()}, nil
}

// fieldType resolves the type of a struct field or float3 swizzle member
// without lowering an expression, shared by the read path (lowerMember)
// and the lvalue path (lowerLvalueTarget).
func (l *Lowerer) fieldType(baseType types.DataType, member string) (types.DataType, error) {
	if baseType.Equal(types.Float3) {
		if len(member) == 1 {
			if _, ok := types.Float3Fields[member]; ok {
				return types.Float, nil
			}
			return types.DataType{}, fmt.Errorf("float3 has no field %q", member)
		}
		for _, c := range member {
			if _, ok := types.Float3Fields[string(c)]; !ok {
				return types.DataType{}, fmt.Errorf("invalid swizzle %q", member)
			}
		}
		if len(member) == 3 {
			return types.Float3, nil
		}
		return types.DataType{}, fmt.Errorf("unsupported swizzle length %d (only a single field or a 3-component swizzle is supported)", len(member))
	}
	fields, ok := l.ctx.StructFields(baseType.StructName)
	if !ok {
		return types.DataType{}, fmt.Errorf("unknown struct type %q", baseType.StructName)
	}
	for _, f := range fields {
		if f.Name == member {
			return f.Type, nil
		}
	}
	return types.DataType{}, fmt.Errorf("struct %q has no field %q", baseType.StructName, member)
}

func (l *Lowerer) lowerMember(m *ast.MemberExpr) (ir.Expression, error) {
	base, err := l.lowerExpr(m.Base)
	if err != nil {
		return nil, err
	}
	bt := base.ResultType()
	if bt.Kind != types.KindStruct {
		return nil, fmt.Errorf("cannot access member %q of non-struct value", m.Member)
	}
	ft, err := l.fieldType(bt, m.Member)
	if err != nil {
		return nil, err
	}
	if bt.Equal(types.Float3) && len(m.Member) == 3 {
		x := ir.FieldAccess{Base: base, Field: string(m.Member[0]), Type: types.Float}
		y := ir.FieldAccess{Base: base, Field: string(m.Member[1]), Type: types.Float}
		z := ir.FieldAccess{Base: base, Field: string(m.Member[2]), Type: types.Float}
		return ir.Float3Lit{X: x, Y: y, Z: z}, nil
	}
	return ir.FieldAccess{Base: base, Field: m.Member, Type: ft}, nil
}

// lowerLvalueTarget resolves an ast.Lvalue into its ir.Lvalue storage
// description plus the type stored there, used by assignment, inc/dec,
// and OUTPUT-argument binding.
func (l *Lowerer) lowerLvalueTarget(e ast.Expr) (ir.Lvalue, types.DataType, error) {
	switch x := e.(type) {
	case *ast.VarRef:
		if _, ok := l.ctx.LookupResource(x.Name); ok {
			return nil, types.DataType{}, fmt.Errorf("resource %q is not assignable", x.Name)
		}
		sym, ok := l.ctx.Resolve(x.Name)
		if !ok {
			return nil, types.DataType{}, fmt.Errorf("undefined variable %q", x.Name)
		}
		switch sym.Kind {
		case SymParam:
			return ir.ParamLvalue{Index: sym.Index, Name: sym.Name}, sym.Type, nil
		case SymGlobal:
			return ir.GlobalLvalue{Name: sym.Name}, sym.Type, nil
		default:
			return ir.LocalLvalue{Name: sym.IRName}, sym.Type, nil
		}
	case *ast.IndexExpr:
		base, baseType, err := l.lowerLvalueTarget(x.Base)
		if err != nil {
			return nil, types.DataType{}, err
		}
		idx, err := l.lowerExpr(x.Index)
		if err != nil {
			return nil, types.DataType{}, err
		}
		if !idx.ResultType().IsInteger() {
			return nil, types.DataType{}, fmt.Errorf("array index must be an integer expression")
		}
		return ir.IndexLvalue{Base: base, Index: idx}, baseType, nil
	case *ast.MemberExpr:
		base, baseType, err := l.lowerLvalueTarget(x.Base)
		if err != nil {
			return nil, types.DataType{}, err
		}
		if baseType.Kind != types.KindStruct {
			return nil, types.DataType{}, fmt.Errorf("cannot access member %q of non-struct value", x.Member)
		}
		if baseType.Equal(types.Float3) && len(x.Member) > 1 {
			return nil, types.DataType{}, fmt.Errorf("swizzle %q is read-only and cannot be assigned to", x.Member)
		}
		fieldType, err := l.fieldType(baseType, x.Member)
		if err != nil {
			return nil, types.DataType{}, err
		}
		return ir.FieldLvalue{Base: base, Field: x.Member}, fieldType, nil
	default:
		return nil, types.DataType{}, fmt.Errorf("expression is not assignable")
	}
}

var binaryOpTokens = map[ast.TokenKind]ir.BinaryOp{
	ast.TokenPlus:            ir.OpAdd,
	ast.TokenMinus:           ir.OpSub,
	ast.TokenStar:            ir.OpMul,
	ast.TokenSlash:           ir.OpDiv,
	ast.TokenPercent:         ir.OpMod,
	ast.TokenAmpersand:       ir.OpBitAnd,
	ast.TokenPipe:            ir.OpBitOr,
	ast.TokenCaret:           ir.OpBitXor,
	ast.TokenLessLess:        ir.OpShl,
	ast.TokenGreaterGreater:  ir.OpShr,
	ast.TokenEqualEqual:      ir.OpEq,
	ast.TokenBangEqual:       ir.OpNe,
	ast.TokenLess:            ir.OpLt,
	ast.TokenLessEqual:       ir.OpLe,
	ast.TokenGreater:         ir.OpGt,
	ast.TokenGreaterEqual:    ir.OpGe,
	ast.TokenAmpAmp:          ir.OpLogAnd,
	ast.TokenPipePipe:        ir.OpLogOr,
}

func requiresIntegerOperands(op ir.BinaryOp) bool {
	switch op {
	case ir.OpShl, ir.OpShr, ir.OpBitAnd, ir.OpBitOr, ir.OpBitXor:
		return true
	default:
		return false
	}
}

func (l *Lowerer) lowerBinary(b *ast.BinaryExpr) (ir.Expression, error) {
	left, err := l.lowerExpr(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(b.Right)
	if err != nil {
		return nil, err
	}
	lt, rt := left.ResultType(), right.ResultType()
	lClosure, rClosure := lt.Kind == types.KindClosure, rt.Kind == types.KindClosure

	if lClosure || rClosure {
		switch b.Op {
		case ast.TokenPlus:
			if lClosure && rClosure {
				return ir.ClosureAdd{Left: left, Right: right}, nil
			}
			return nil, fmt.Errorf("cannot add a closure and a non-closure value")
		case ast.TokenStar:
			if lClosure && rClosure {
				return nil, fmt.Errorf("closures cannot be multiplied together")
			}
			if lClosure {
				if !rt.IsNumeric() {
					return nil, fmt.Errorf("closure weight must be numeric")
				}
				return ir.ClosureMul{Weight: right, Child: left}, nil
			}
			if !lt.IsNumeric() {
				return nil, fmt.Errorf("closure weight must be numeric")
			}
			return ir.ClosureMul{Weight: left, Child: right}, nil
		default:
			return nil, fmt.Errorf("closures only support + between closures and * with a scalar weight")
		}
	}

	opcode, ok := binaryOpTokens[b.Op]
	if !ok {
		return nil, fmt.Errorf("internal error: unsupported binary operator token")
	}
	if requiresIntegerOperands(opcode) {
		if !lt.IsInteger() || !rt.IsInteger() {
			return nil, fmt.Errorf("operator requires integer operands, got %s and %s", lt, rt)
		}
	}
	resultType, err := ir.ResolveBinary(opcode, lt, rt)
	if err != nil {
		return nil, err
	}
	return ir.Binary{Op: opcode, L: left, R: right, Type: resultType}, nil
}

func (l *Lowerer) lowerUnary(u *ast.UnaryExpr) (ir.Expression, error) {
	x, err := l.lowerExpr(u.Operand)
	if err != nil {
		return nil, err
	}
	t := x.ResultType()
	switch u.Op {
	case ast.TokenPlus:
		if !t.IsNumeric() {
			return nil, fmt.Errorf("unary + requires a numeric operand, got %s", t)
		}
		return x, nil
	case ast.TokenMinus:
		if !t.IsNumeric() {
			return nil, fmt.Errorf("unary - requires a numeric operand, got %s", t)
		}
		return ir.Unary{Op: ir.OpNeg, X: x, Type: t}, nil
	case ast.TokenBang:
		return ir.Unary{Op: ir.OpNot, X: x, Type: types.Bool}, nil
	case ast.TokenTilde:
		if !t.IsInteger() {
			return nil, fmt.Errorf("unary ~ requires an integer operand, got %s", t)
		}
		return ir.Unary{Op: ir.OpBitNot, X: x, Type: t}, nil
	default:
		return nil, fmt.Errorf("internal error: unsupported unary operator token")
	}
}

func (l *Lowerer) lowerIncDec(i *ast.IncDecExpr) (ir.Expression, error) {
	target, targetType, err := l.lowerLvalueTarget(i.Operand)
	if err != nil {
		return nil, err
	}
	cur, err := l.lowerExpr(i.Operand)
	if err != nil {
		return nil, err
	}
	if !targetType.IsInteger() {
		// Non-integer operands are a documented no-op: the operand is
		// read and yielded unchanged (spec §4.4).
		return cur, nil
	}
	delta := int32(1)
	if i.Op == ast.TokenMinusMinus {
		delta = -1
	}
	return ir.IncDec{Target: target, Delta: delta, Prefix: i.Prefix, Type: targetType}, nil
}

func (l *Lowerer) lowerTernary(t *ast.TernaryExpr) (ir.Expression, error) {
	cond, err := l.lowerExpr(t.Cond)
	if err != nil {
		return nil, err
	}
	then, err := l.lowerExpr(t.Then)
	if err != nil {
		return nil, err
	}
	els, err := l.lowerExpr(t.Else)
	if err != nil {
		return nil, err
	}
	thenType, elseType := then.ResultType(), els.ResultType()
	resultType := thenType
	if !thenType.Equal(elseType) {
		if thenType.IsNumeric() && elseType.IsNumeric() {
			resultType = ir.Promote(thenType, elseType)
		} else {
			return nil, fmt.Errorf("ternary branches have mismatched types %s and %s", thenType, elseType)
		}
	}
	return ir.Ternary{Cond: cond, Then: then, Else: els, Type: resultType}, nil
}

var compoundAssignOps = map[ast.TokenKind]ir.BinaryOp{
	ast.TokenPlusEqual:           ir.OpAdd,
	ast.TokenMinusEqual:          ir.OpSub,
	ast.TokenStarEqual:           ir.OpMul,
	ast.TokenSlashEqual:          ir.OpDiv,
	ast.TokenPercentEqual:        ir.OpMod,
	ast.TokenAmpEqual:            ir.OpBitAnd,
	ast.TokenPipeEqual:           ir.OpBitOr,
	ast.TokenCaretEqual:          ir.OpBitXor,
	ast.TokenLessLessEqual:       ir.OpShl,
	ast.TokenGreaterGreaterEqual: ir.OpShr,
}

func (l *Lowerer) lowerAssign(a *ast.AssignExpr) (ir.Expression, error) {
	target, targetType, err := l.lowerLvalueTarget(a.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := l.lowerExpr(a.Right)
	if err != nil {
		return nil, err
	}

	var value ir.Expression
	if a.Op == ast.TokenEqual {
		value = rhs
		rt := rhs.ResultType()
		if !rt.Equal(targetType) {
			switch {
			case rt.IsNumeric() && targetType.IsNumeric():
				value = ir.Cast{Target: targetType, X: rhs}
			case rt.Kind == types.KindClosure && targetType.Kind == types.KindClosure:
				// both closure-kind; nothing further to resolve.
			default:
				return nil, fmt.Errorf("cannot assign value of type %s to a variable of type %s", rt, targetType)
			}
		}
	} else {
		cur, err := l.lowerExpr(a.Left)
		if err != nil {
			return nil, err
		}
		opcode, ok := compoundAssignOps[a.Op]
		if !ok {
			return nil, fmt.Errorf("internal error: unsupported assignment operator token")
		}
		if requiresIntegerOperands(opcode) {
			if !cur.ResultType().IsInteger() || !rhs.ResultType().IsInteger() {
				return nil, fmt.Errorf("operator requires integer operands")
			}
		}
		resultType, err := ir.ResolveBinary(opcode, cur.ResultType(), rhs.ResultType())
		if err != nil {
			return nil, err
		}
		value = ir.Binary{Op: opcode, L: cur, R: rhs, Type: resultType}
		if !resultType.Equal(targetType) {
			// Mixed integer widths in a compound assignment truncate the
			// RHS-computed value to the LHS width (spec §4.4).
			value = ir.Cast{Target: targetType, X: value}
		}
	}
	return ir.AssignExpr{Target: target, Value: value, Type: targetType}, nil
}

func (l *Lowerer) lowerCall(c *ast.CallExpr) (ir.Expression, error) {
	if sig, ok := l.ctx.LookupFunc(c.Name); ok {
		return l.lowerUserCall(c, sig)
	}
	if intr, ok := runtime.Builtins[c.Name]; ok {
		return l.lowerIntrinsicCall(c, intr)
	}
	return nil, fmt.Errorf("undefined function %q", c.Name)
}

func (l *Lowerer) lowerUserCall(c *ast.CallExpr, sig *FuncSig) (ir.Expression, error) {
	if len(c.Args) != len(sig.Params) {
		return nil, fmt.Errorf("function %q expects %d argument(s), got %d", c.Name, len(sig.Params), len(c.Args))
	}
	args := make([]ir.Expression, len(c.Args))
	var outArgs map[int]ir.Lvalue
	for i, a := range c.Args {
		p := sig.Params[i]
		if p.Flags.Has(types.FlagOutput) {
			lv, ok := a.(ast.Lvalue)
			if !ok {
				return nil, fmt.Errorf("function %q, argument %d (%s): OUTPUT parameter requires an lvalue", c.Name, i+1, p.Name)
			}
			target, targetType, err := l.lowerLvalueTarget(lv)
			if err != nil {
				return nil, err
			}
			if !targetType.Equal(p.Type) {
				return nil, fmt.Errorf("function %q, argument %d (%s): output type mismatch, expected %s, got %s", c.Name, i+1, p.Name, p.Type, targetType)
			}
			if outArgs == nil {
				outArgs = make(map[int]ir.Lvalue)
			}
			outArgs[i] = target
			continue
		}
		ae, err := l.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		if !ae.ResultType().Equal(p.Type) {
			if ae.ResultType().IsNumeric() && p.Type.IsNumeric() {
				ae = ir.Cast{Target: p.Type, X: ae}
			} else {
				return nil, fmt.Errorf("function %q, argument %d (%s): expected %s, got %s", c.Name, i+1, p.Name, p.Type, ae.ResultType())
			}
		}
		args[i] = ae
	}
	return ir.Call{Name: c.Name, Args: args, Type: sig.ReturnType, OutArgs: outArgs}, nil
}

func (l *Lowerer) lowerIntrinsicCall(c *ast.CallExpr, intr *runtime.Intrinsic) (ir.Expression, error) {
	if len(c.Args) != intr.Arity {
		return nil, fmt.Errorf("intrinsic %q expects %d argument(s), got %d", c.Name, intr.Arity, len(c.Args))
	}
	args := make([]ir.Expression, len(c.Args))
	argTypes := make([]types.DataType, len(c.Args))
	for i, a := range c.Args {
		ae, err := l.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = ae
		argTypes[i] = ae.ResultType()
	}
	retType, err := intr.Resolve(argTypes)
	if err != nil {
		return nil, fmt.Errorf("intrinsic %q: %v", c.Name, err)
	}
	return ir.Call{Name: c.Name, Args: args, Type: retType}, nil
}

// lowerFloat3 applies the float3 constructor's argument-count rules (spec
// §4.1): zero args zero-fills, fewer than three broadcasts the last
// argument to the remaining slots, and more than three warns and drops
// the extras.
func (l *Lowerer) lowerFloat3(f *ast.Float3Expr) (ir.Expression, error) {
	argsIR := make([]ir.Expression, 0, len(f.Args))
	for _, a := range f.Args {
		ae, err := l.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		if !ae.ResultType().IsNumeric() || ae.ResultType().Kind == types.KindStruct {
			return nil, fmt.Errorf("float3 constructor arguments must be numeric scalars, got %s", ae.ResultType())
		}
		if !ae.ResultType().Equal(types.Float) {
			ae = ir.Cast{Target: types.Float, X: ae}
		}
		argsIR = append(argsIR, ae)
	}
	switch {
	case len(argsIR) == 0:
		zero := ir.ConstFloat{Value: 0}
		return ir.Float3Lit{X: zero, Y: zero, Z: zero}, nil
	case len(argsIR) < 3:
		last := argsIR[len(argsIR)-1]
		for len(argsIR) < 3 {
			argsIR = append(argsIR, last)
		}
	case len(argsIR) > 3:
		l.warnf("float3 constructor given %d arguments, expected at most 3; extra arguments are ignored", len(f.Args))
		argsIR = argsIR[:3]
	}
	return ir.Float3Lit{X: argsIR[0], Y: argsIR[1], Z: argsIR[2]}, nil
}

func (l *Lowerer) lowerCast(c *ast.CastExpr) (ir.Expression, error) {
	x, err := l.lowerExpr(c.X)
	if err != nil {
		return nil, err
	}
	target, err := l.ctx.ResolveTypeName(c.Target.Name)
	if err != nil {
		return nil, err
	}
	if target.Kind == types.KindStruct || x.ResultType().Kind == types.KindStruct {
		return nil, fmt.Errorf("cannot cast between struct and scalar types")
	}
	if target.Kind == types.KindClosure || x.ResultType().Kind == types.KindClosure {
		return nil, fmt.Errorf("cannot cast to or from a closure value")
	}
	return ir.Cast{Target: target, X: x}, nil
}

func (l *Lowerer) lowerMakeClosure(m *ast.MakeClosureExpr) (ir.Expression, error) {
	desc, ok := l.ctx.Closures.Lookup(m.Name)
	if !ok {
		return nil, fmt.Errorf("unknown closure type %q", m.Name)
	}
	if len(m.Args) != len(desc.Fields) {
		return nil, fmt.Errorf("closure %q expects %d argument(s), got %d", m.Name, len(desc.Fields), len(m.Args))
	}
	args := make([]ir.Expression, len(m.Args))
	for i, a := range m.Args {
		field := desc.Fields[i]
		if field.Type.Kind == types.KindResource {
			ref, ok := a.(*ast.VarRef)
			if !ok {
				return nil, fmt.Errorf("closure %q, argument %d (%s): expects a resource handle name", m.Name, i+1, field.Name)
			}
			if _, ok := l.ctx.LookupResource(ref.Name); !ok {
				return nil, fmt.Errorf("undefined resource %q", ref.Name)
			}
			args[i] = ir.GlobalRef{Name: ref.Name, Type: field.Type}
			continue
		}
		ae, err := l.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		if !ae.ResultType().Equal(field.Type) {
			if ae.ResultType().IsNumeric() && field.Type.IsNumeric() {
				ae = ir.Cast{Target: field.Type, X: ae}
			} else {
				return nil, fmt.Errorf("closure %q, argument %d (%s): expected %s, got %s", m.Name, i+1, field.Name, field.Type, ae.ResultType())
			}
		}
		args[i] = ae
	}
	return ir.MakeClosure{ClosureName: m.Name, Args: args}, nil
}

func (l *Lowerer) lowerGlobalValue(g *ast.GlobalValueExpr) (ir.Expression, error) {
	t, ok := l.globalLayout[g.Field]
	if !ok {
		return nil, fmt.Errorf("undefined TSL-global field %q", g.Field)
	}
	return ir.GlobalValueField{Field: g.Field, Type: t}, nil
}

func (l *Lowerer) lowerTextureSample(t *ast.TextureSampleExpr) (ir.Expression, error) {
	isTexture, ok := l.ctx.LookupResource(t.Handle)
	if !ok {
		return nil, fmt.Errorf("undefined resource %q", t.Handle)
	}
	if !isTexture {
		return nil, fmt.Errorf("%q is not a texture2d resource", t.Handle)
	}
	u, err := l.lowerExpr(t.U)
	if err != nil {
		return nil, err
	}
	v, err := l.lowerExpr(t.V)
	if err != nil {
		return nil, err
	}
	if !u.ResultType().IsNumeric() || !v.ResultType().IsNumeric() {
		return nil, fmt.Errorf("texture2d_sample coordinates must be numeric")
	}
	if !u.ResultType().Equal(types.Float) {
		u = ir.Cast{Target: types.Float, X: u}
	}
	if !v.ResultType().Equal(types.Float) {
		v = ir.Cast{Target: types.Float, X: v}
	}
	return ir.TextureSample{Handle: t.Handle, Alpha: t.Alpha, U: u, V: v}, nil
}
