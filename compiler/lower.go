package compiler

import (
	"fmt"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/types"
)

// Lowerer walks a parsed ast.Module and produces an ir.Module, following
// naga's wgsl.Lowerer shape: a struct holding mutable lowering state plus
// one lower* method per node kind, type-switch dispatched (wgsl/lower.go).
type Lowerer struct {
	ctx      *Context
	errors   []error
	warnings []string

	curFunc    *FuncSig
	curParams  map[string]int // param name -> index, for the function being lowered

	globalLayout map[string]types.DataType

	// localSeq mangles shadowed local names so the flat runtime frame
	// storage package exec uses never collides two distinct source
	// locals that happen to share a name across nested block scopes
	// (spec §4.2 permits shadowing; see declareLocal).
	localSeq map[string]int
}

// declareLocal registers a local variable, mangling its runtime name if
// any earlier local lowered by this Lowerer (in any scope of any function
// of the module) already used this source name.
func (l *Lowerer) declareLocal(name string, t types.DataType, flags types.VarFlags) (*Symbol, error) {
	if l.localSeq == nil {
		l.localSeq = make(map[string]int)
	}
	seq := l.localSeq[name]
	l.localSeq[name] = seq + 1
	irName := name
	if seq > 0 {
		irName = fmt.Sprintf("%s$%d", name, seq)
	}
	sym := &Symbol{Name: name, IRName: irName, Type: t, Flags: flags, Kind: SymLocal}
	if err := l.ctx.Declare(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// GlobalLayoutField describes one field of the host-supplied TSL-global
// structure (spec §6.2), resolved before lowering so global_value<field>
// expressions can be type-checked.
type GlobalLayoutField struct {
	Name string
	Type types.DataType
}

// Options configures a Lower call.
type Options struct {
	// GlobalLayout is the host's TSL-global field layout, if any shader in
	// this module uses global_value<field>.
	GlobalLayout []GlobalLayoutField
	// Closures is a pre-populated closure registry (closures are
	// registered by the host via closure_register-style C++ calls in the
	// original implementation, not declared in TSL source; spec §4.7).
	Closures *closure.Registry
}

// Lower compiles a parsed ast.Module into an ir.Module.
func Lower(mod *ast.Module, opts Options) (*ir.Module, []string, error) {
	ctx := NewContext()
	if opts.Closures != nil {
		ctx.Closures = opts.Closures
	}
	globalLayout := make(map[string]types.DataType, len(opts.GlobalLayout))
	for _, f := range opts.GlobalLayout {
		globalLayout[f.Name] = f.Type
	}

	l := &Lowerer{ctx: ctx}

	// Pass 1: register struct layouts, so later member types resolve.
	for _, sd := range mod.Structs {
		fields := make([]StructFieldInfo, 0, len(sd.Members))
		for _, m := range sd.Members {
			t, err := ctx.ResolveTypeName(m.Type.Name)
			if err != nil {
				l.errorf("struct %s: %v", sd.Name, err)
				continue
			}
			fields = append(fields, StructFieldInfo{Name: m.Name, Type: t})
		}
		if err := ctx.DeclareStruct(sd.Name, fields); err != nil {
			l.errorf("%v", err)
		}
	}

	// Pass 2: resources and globals.
	for _, rd := range mod.TextureDecls {
		if err := ctx.DeclareResource(rd.Name, true); err != nil {
			l.errorf("%v", err)
		}
	}
	for _, rd := range mod.ResourceDecls {
		if err := ctx.DeclareResource(rd.Name, false); err != nil {
			l.errorf("%v", err)
		}
	}
	irGlobals := make([]*ir.GlobalVar, 0, len(mod.GlobalVars))
	for _, gv := range mod.GlobalVars {
		t, err := ctx.ResolveTypeName(gv.Type.Name)
		if err != nil {
			l.errorf("global %s: %v", gv.Name, err)
			continue
		}
		if err := ctx.DeclareGlobal(gv.Name, t); err != nil {
			l.errorf("%v", err)
			continue
		}
		g := &ir.GlobalVar{Name: gv.Name, Type: t, IsArray: gv.ArrSize != nil}
		if gv.ArrSize != nil {
			g.ArrSize, _ = l.lowerExpr(gv.ArrSize)
		}
		if gv.Init != nil {
			g.Init, _ = l.lowerExpr(gv.Init)
		}
		irGlobals = append(irGlobals, g)
	}
	l.globalLayout = globalLayout

	// Pass 3: register function signatures (forward-reference safe).
	for _, fd := range mod.Functions {
		sig, err := l.signatureOf(fd)
		if err != nil {
			l.errorf("%v", err)
			continue
		}
		if err := ctx.DeclareFunc(sig); err != nil {
			l.errorf("%v", err)
		}
	}

	// Pass 4: lower bodies.
	irFuncs := make([]*ir.Function, 0, len(mod.Functions))
	for _, fd := range mod.Functions {
		fn, err := l.lowerFunction(fd)
		if err != nil {
			l.errorf("%v", err)
			continue
		}
		irFuncs = append(irFuncs, fn)
	}

	irStructs := make([]*ir.StructType, 0, len(mod.Structs))
	for _, sd := range mod.Structs {
		fields, _ := ctx.StructFields(sd.Name)
		members := make([]ir.StructMember, 0, len(fields))
		offset := 0
		for _, f := range fields {
			members = append(members, ir.StructMember{Name: f.Name, Type: f.Type, Offset: offset})
			offset += sizeOf(f.Type)
		}
		irStructs = append(irStructs, &ir.StructType{Name: sd.Name, Members: members})
	}

	module := &ir.Module{Structs: irStructs, Globals: irGlobals, Functions: irFuncs}

	if len(l.errors) > 0 {
		return module, l.warnings, l.errors[0]
	}
	return module, l.warnings, nil
}

func sizeOf(t types.DataType) int {
	switch t.Kind {
	case types.KindInt, types.KindFloat, types.KindBool:
		return 4
	case types.KindDouble:
		return 8
	case types.KindStruct:
		if t.StructName == types.Float3Name {
			return 12
		}
		return 0
	default:
		return 0
	}
}

func (l *Lowerer) errorf(format string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Errorf(format, args...))
}

func (l *Lowerer) warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *Lowerer) signatureOf(fd *ast.FunctionDecl) (*FuncSig, error) {
	ret, err := l.ctx.ResolveTypeName(fd.ReturnType.Name)
	if err != nil {
		return nil, fmt.Errorf("function %s: %v", fd.Name, err)
	}
	params := make([]ParamSig, 0, len(fd.Params))
	for _, p := range fd.Params {
		pt, err := l.ctx.ResolveTypeName(p.Type.Name)
		if err != nil {
			return nil, fmt.Errorf("function %s, parameter %s: %v", fd.Name, p.Name, err)
		}
		params = append(params, ParamSig{Name: p.Name, Type: pt, Flags: p.Flags})
	}
	return &FuncSig{Name: fd.Name, Params: params, ReturnType: ret, IsShader: fd.IsShader}, nil
}

func (l *Lowerer) lowerFunction(fd *ast.FunctionDecl) (*ir.Function, error) {
	sig, ok := l.ctx.LookupFunc(fd.Name)
	if !ok {
		return nil, fmt.Errorf("internal error: signature for %s not registered", fd.Name)
	}
	fn := &ir.Function{Name: fd.Name, ReturnType: sig.ReturnType, IsShader: fd.IsShader}
	for _, p := range sig.Params {
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Type: p.Type, Flags: p.Flags})
		if fd.IsShader && !p.Flags.Has(types.FlagOutput) {
			fn.ExposedArgs = append(fn.ExposedArgs, p.Name)
		}
	}

	if fd.Body == nil {
		return fn, nil // prototype only
	}

	l.curFunc = sig
	l.curParams = make(map[string]int, len(sig.Params))
	for i, p := range sig.Params {
		l.curParams[p.Name] = i
	}

	l.ctx.PushScope()
	for i, p := range sig.Params {
		_ = l.ctx.Declare(&Symbol{Name: p.Name, Type: p.Type, Flags: p.Flags, Kind: SymParam, Index: i})
	}
	body, err := l.lowerBlockStmts(fd.Body.Statements)
	l.ctx.PopScope()
	l.curFunc = nil
	l.curParams = nil
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// lowerBlock lowers a nested block, pushing/popping its own scope layer
// (spec §4.2: a new scope layer per block).
func (l *Lowerer) lowerBlock(b *ast.BlockStmt) (*ir.Block, error) {
	l.ctx.PushScope()
	defer l.ctx.PopScope()
	return l.lowerBlockStmts(b.Statements)
}

func (l *Lowerer) lowerBlockStmts(stmts []ast.Stmt) (*ir.Block, error) {
	block := &ir.Block{}
	for _, s := range stmts {
		st, err := l.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		if st != nil {
			block.Stmts = append(block.Stmts, st)
		}
	}
	return block, nil
}
