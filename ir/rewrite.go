package ir

// RewriteNames returns a deep copy of fn with every Call.Name,
// GlobalRef.Name, GlobalLvalue.Name and TextureSample.Handle rewritten
// through funcNames / globalNames, leaving any name absent from the
// relevant map unchanged. package system uses this to inline a
// shader-unit template's functions into a shader-group's merged module
// under group-local names (spec §4.8 step 4: "remap calls and global
// names using the group-local unit name") without needing to touch the
// unit's own locals or parameters, which remain scoped to that function's
// own call frame regardless of the function's new name.
func RewriteNames(fn *Function, funcNames, globalNames map[string]string) *Function {
	out := &Function{
		Name:        rewriteName(fn.Name, funcNames),
		Params:      fn.Params,
		ReturnType:  fn.ReturnType,
		IsShader:    fn.IsShader,
		ExposedArgs: fn.ExposedArgs,
	}
	if fn.Body != nil {
		out.Body = rewriteBlock(fn.Body, funcNames, globalNames)
	}
	return out
}

func rewriteName(name string, table map[string]string) string {
	if alt, ok := table[name]; ok {
		return alt
	}
	return name
}

func rewriteBlock(b *Block, fn, gl map[string]string) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Stmts: make([]Statement, len(b.Stmts))}
	for i, s := range b.Stmts {
		out.Stmts[i] = rewriteStmt(s, fn, gl)
	}
	return out
}

func rewriteStmt(s Statement, fn, gl map[string]string) Statement {
	switch st := s.(type) {
	case *Block:
		return rewriteBlock(st, fn, gl)
	case *LocalDecl:
		return &LocalDecl{
			Name:    st.Name,
			Type:    st.Type,
			IsArray: st.IsArray,
			ArrSize: rewriteExpr(st.ArrSize, fn, gl),
			Init:    rewriteExpr(st.Init, fn, gl),
		}
	case *Assign:
		return &Assign{
			Target: rewriteLvalue(st.Target, fn, gl),
			Op:     st.Op,
			Value:  rewriteExpr(st.Value, fn, gl),
		}
	case *ExprStmt:
		return &ExprStmt{X: rewriteExpr(st.X, fn, gl)}
	case *Return:
		return &Return{Value: rewriteExpr(st.Value, fn, gl)}
	case *If:
		return &If{
			Cond: rewriteExpr(st.Cond, fn, gl),
			Then: rewriteStmt(st.Then, fn, gl),
			Else: rewriteStmtOrNil(st.Else, fn, gl),
		}
	case *While:
		return &While{Cond: rewriteExpr(st.Cond, fn, gl), Body: rewriteStmt(st.Body, fn, gl)}
	case *DoWhile:
		return &DoWhile{Body: rewriteStmt(st.Body, fn, gl), Cond: rewriteExpr(st.Cond, fn, gl)}
	case *For:
		return &For{
			Init:   rewriteStmtOrNil(st.Init, fn, gl),
			Cond:   rewriteExpr(st.Cond, fn, gl),
			Update: rewriteStmtOrNil(st.Update, fn, gl),
			Body:   rewriteStmt(st.Body, fn, gl),
		}
	case *Break:
		return st
	case *Continue:
		return st
	default:
		return st
	}
}

func rewriteStmtOrNil(s Statement, fn, gl map[string]string) Statement {
	if s == nil {
		return nil
	}
	return rewriteStmt(s, fn, gl)
}

func rewriteExpr(e Expression, fn, gl map[string]string) Expression {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case ConstInt, ConstFloat, ConstDouble, ConstBool:
		return x
	case Float3Lit:
		return Float3Lit{X: rewriteExpr(x.X, fn, gl), Y: rewriteExpr(x.Y, fn, gl), Z: rewriteExpr(x.Z, fn, gl)}
	case LocalRef:
		return x
	case ParamRef:
		return x
	case GlobalRef:
		return GlobalRef{Name: rewriteName(x.Name, gl), Type: x.Type}
	case FieldAccess:
		return FieldAccess{Base: rewriteExpr(x.Base, fn, gl), Field: x.Field, Type: x.Type}
	case IndexAccess:
		return IndexAccess{Base: rewriteExpr(x.Base, fn, gl), Index: rewriteExpr(x.Index, fn, gl), Type: x.Type}
	case Unary:
		return Unary{Op: x.Op, X: rewriteExpr(x.X, fn, gl), Type: x.Type}
	case Binary:
		return Binary{Op: x.Op, L: rewriteExpr(x.L, fn, gl), R: rewriteExpr(x.R, fn, gl), Type: x.Type}
	case Ternary:
		return Ternary{Cond: rewriteExpr(x.Cond, fn, gl), Then: rewriteExpr(x.Then, fn, gl), Else: rewriteExpr(x.Else, fn, gl), Type: x.Type}
	case Call:
		args := make([]Expression, len(x.Args))
		for i, a := range x.Args {
			args[i] = rewriteExpr(a, fn, gl)
		}
		var outArgs map[int]Lvalue
		if x.OutArgs != nil {
			outArgs = make(map[int]Lvalue, len(x.OutArgs))
			for i, lv := range x.OutArgs {
				outArgs[i] = rewriteLvalue(lv, fn, gl)
			}
		}
		return Call{Name: rewriteName(x.Name, fn), Args: args, Type: x.Type, OutArgs: outArgs}
	case AssignExpr:
		return AssignExpr{Target: rewriteLvalue(x.Target, fn, gl), Value: rewriteExpr(x.Value, fn, gl), Type: x.Type}
	case IncDec:
		return IncDec{Target: rewriteLvalue(x.Target, fn, gl), Delta: x.Delta, Prefix: x.Prefix, Type: x.Type}
	case Cast:
		return Cast{Target: x.Target, X: rewriteExpr(x.X, fn, gl)}
	case ClosureAdd:
		return ClosureAdd{Left: rewriteExpr(x.Left, fn, gl), Right: rewriteExpr(x.Right, fn, gl)}
	case ClosureMul:
		return ClosureMul{Weight: rewriteExpr(x.Weight, fn, gl), Child: rewriteExpr(x.Child, fn, gl)}
	case MakeClosure:
		args := make([]Expression, len(x.Args))
		for i, a := range x.Args {
			args[i] = rewriteExpr(a, fn, gl)
		}
		return MakeClosure{ClosureName: x.ClosureName, Args: args}
	case GlobalValueField:
		return x
	case TextureSample:
		return TextureSample{Handle: rewriteName(x.Handle, gl), Alpha: x.Alpha, U: rewriteExpr(x.U, fn, gl), V: rewriteExpr(x.V, fn, gl)}
	default:
		return x
	}
}

func rewriteLvalue(lv Lvalue, fn, gl map[string]string) Lvalue {
	if lv == nil {
		return nil
	}
	switch t := lv.(type) {
	case LocalLvalue:
		return t
	case ParamLvalue:
		return t
	case GlobalLvalue:
		return GlobalLvalue{Name: rewriteName(t.Name, gl)}
	case FieldLvalue:
		return FieldLvalue{Base: rewriteLvalue(t.Base, fn, gl), Field: t.Field}
	case IndexLvalue:
		return IndexLvalue{Base: rewriteLvalue(t.Base, fn, gl), Index: rewriteExpr(t.Index, fn, gl)}
	default:
		return t
	}
}
