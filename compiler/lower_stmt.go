package compiler

import (
	"fmt"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/ir"
)

// lowerStmt dispatches one statement node, following wgsl.Lowerer's
// type-switch shape (wgsl/lower.go).
func (l *Lowerer) lowerStmt(s ast.Stmt) (ir.Statement, error) {
	switch st := s.(type) {
	case *ast.VarDecl:
		return l.lowerVarDecl(st)
	case *ast.ResourceDecl:
		if err := l.ctx.DeclareResource(st.Name, st.IsTexture); err != nil {
			return nil, err
		}
		return nil, nil
	case *ast.BlockStmt:
		return l.lowerBlock(st)
	case *ast.ReturnStmt:
		if st.Value == nil {
			return &ir.Return{}, nil
		}
		v, err := l.lowerExpr(st.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Return{Value: v}, nil
	case *ast.IfStmt:
		return l.lowerIf(st)
	case *ast.WhileStmt:
		return l.lowerWhile(st)
	case *ast.DoWhileStmt:
		return l.lowerDoWhile(st)
	case *ast.ForStmt:
		return l.lowerFor(st)
	case *ast.BreakStmt:
		if !l.ctx.InLoop() {
			return nil, fmt.Errorf("break used outside a loop")
		}
		return &ir.Break{}, nil
	case *ast.ContinueStmt:
		if !l.ctx.InLoop() {
			return nil, fmt.Errorf("continue used outside a loop")
		}
		return &ir.Continue{}, nil
	case *ast.ExprStmt:
		x, err := l.lowerExpr(st.X)
		if err != nil {
			return nil, err
		}
		return &ir.ExprStmt{X: x}, nil
	default:
		return nil, fmt.Errorf("internal error: unhandled statement type %T", s)
	}
}

func (l *Lowerer) lowerVarDecl(v *ast.VarDecl) (ir.Statement, error) {
	t, err := l.ctx.ResolveTypeName(v.Type.Name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %v", v.Name, err)
	}
	var arrSize ir.Expression
	if v.ArrSize != nil {
		arrSize, err = l.lowerExpr(v.ArrSize)
		if err != nil {
			return nil, err
		}
	}
	var init ir.Expression
	if v.Init != nil {
		init, err = l.lowerExpr(v.Init)
		if err != nil {
			return nil, err
		}
	}
	// Declared after lowering Init so `int x = x;` sees the outer x, not
	// itself, matching C-family scoping.
	sym, err := l.declareLocal(v.Name, t, v.Flags)
	if err != nil {
		return nil, err
	}
	return &ir.LocalDecl{Name: sym.IRName, Type: t, IsArray: v.ArrSize != nil, ArrSize: arrSize, Init: init}, nil
}

func (l *Lowerer) lowerIf(i *ast.IfStmt) (ir.Statement, error) {
	cond, err := l.lowerExpr(i.Condition)
	if err != nil {
		return nil, err
	}
	then, err := l.lowerBlock(i.Then)
	if err != nil {
		return nil, err
	}
	var elseIR ir.Statement
	if i.Else != nil {
		switch e := i.Else.(type) {
		case *ast.BlockStmt:
			elseIR, err = l.lowerBlock(e)
		case *ast.IfStmt:
			elseIR, err = l.lowerIf(e)
		default:
			return nil, fmt.Errorf("internal error: unexpected else clause type %T", e)
		}
		if err != nil {
			return nil, err
		}
	}
	return &ir.If{Cond: cond, Then: then, Else: elseIR}, nil
}

func (l *Lowerer) lowerWhile(w *ast.WhileStmt) (ir.Statement, error) {
	cond, err := l.lowerExpr(w.Condition)
	if err != nil {
		return nil, err
	}
	l.ctx.EnterLoop()
	body, err := l.lowerBlock(w.Body)
	l.ctx.ExitLoop()
	if err != nil {
		return nil, err
	}
	return &ir.While{Cond: cond, Body: body}, nil
}

func (l *Lowerer) lowerDoWhile(d *ast.DoWhileStmt) (ir.Statement, error) {
	l.ctx.EnterLoop()
	body, err := l.lowerBlock(d.Body)
	l.ctx.ExitLoop()
	if err != nil {
		return nil, err
	}
	cond, err := l.lowerExpr(d.Condition)
	if err != nil {
		return nil, err
	}
	return &ir.DoWhile{Body: body, Cond: cond}, nil
}

func (l *Lowerer) lowerFor(f *ast.ForStmt) (ir.Statement, error) {
	l.ctx.PushScope()
	defer l.ctx.PopScope()

	var initIR ir.Statement
	var err error
	if f.Init != nil {
		initIR, err = l.lowerStmt(f.Init)
		if err != nil {
			return nil, err
		}
	}
	var condIR ir.Expression
	if f.Condition != nil {
		condIR, err = l.lowerExpr(f.Condition)
		if err != nil {
			return nil, err
		}
	}
	var updateIR ir.Statement
	if f.Update != nil {
		updateIR, err = l.lowerStmt(f.Update)
		if err != nil {
			return nil, err
		}
	}
	l.ctx.EnterLoop()
	body, err := l.lowerBlock(f.Body)
	l.ctx.ExitLoop()
	if err != nil {
		return nil, err
	}
	return &ir.For{Init: initIR, Cond: condIR, Update: updateIR, Body: body}, nil
}
