package exec

import (
	"fmt"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
)

// Program is a compiled module ready to invoke. It is immutable after
// Compile returns and safe for concurrent use by many goroutines, each
// calling EntryPoint.Invoke with its own arguments (spec §5).
type Program struct {
	module      *ir.Module
	funcs       map[string]*ir.Function
	structs     map[string][]ir.StructMember
	globalDecls []*ir.GlobalVar
	closures    *closure.Registry
	resources   map[string]interface{}
}

// EntryPoint resolves a shader-unit root function by name.
func (p *Program) EntryPoint(name string) (*EntryPoint, error) {
	fn, ok := p.funcs[name]
	if !ok {
		return nil, fmt.Errorf("undefined function %q", name)
	}
	if !fn.IsShader {
		return nil, fmt.Errorf("function %q is not a shader entry point", name)
	}
	return &EntryPoint{program: p, fn: fn}, nil
}

// EntryPoint is one invocable shader-unit root.
type EntryPoint struct {
	program *Program
	fn      *ir.Function
}

// Params reports the entry point's resolved parameter list, in order.
func (e *EntryPoint) Params() []ir.Param { return e.fn.Params }

// Invoke runs one shading-point evaluation of this entry point.
//
// args must align 1:1 with Params(); the initial value of an OUTPUT slot
// is never read, only overwritten. global supplies the host's TSL-global
// field values for global_value<field> (spec §6.2); it may be nil if the
// shader body never references one. host may be nil only if the body
// never samples a texture or calls catch_debug.
//
// Invoke gives each call a fresh copy of the module's file-scope globals,
// so concurrent invocations never observe each other's writes to a TSL
// global variable — a deliberate simplification from the original
// implementation's process-wide LLVM globals.
func (e *EntryPoint) Invoke(host runtime.HostCallback, global map[string]runtime.Value, args []runtime.Value) ([]runtime.Value, runtime.Value, error) {
	if len(args) != len(e.fn.Params) {
		return nil, runtime.Value{}, fmt.Errorf("%s: expected %d argument(s), got %d", e.fn.Name, len(e.fn.Params), len(args))
	}
	eng := &engine{program: e.program, host: host, global: global, globals: e.program.newGlobals()}
	fr := eng.newFrame(e.fn, args)
	sig, err := eng.execBlock(fr, e.fn.Body)
	if err != nil {
		return nil, runtime.Value{}, fmt.Errorf("%s: %w", e.fn.Name, err)
	}
	out := make([]runtime.Value, len(fr.params))
	for i, p := range fr.params {
		out[i] = *p
	}
	var ret runtime.Value
	if sig.kind == sigReturn {
		ret = sig.value
	}
	return out, ret, nil
}

// newGlobals builds one fresh, independently mutable instance of the
// module's file-scope variables, evaluating each Init expression in
// declaration order so later globals may reference earlier ones.
func (p *Program) newGlobals() map[string]*runtime.Value {
	g := make(map[string]*runtime.Value, len(p.globalDecls))
	eng := &engine{program: p, globals: g}
	for _, gd := range p.globalDecls {
		v := eng.zeroValue(gd.Type)
		if gd.IsArray {
			v.Arr = []runtime.Value{}
		}
		g[gd.Name] = &v
	}
	fr := eng.newFrame(nil, nil)
	for _, gd := range p.globalDecls {
		if gd.Init == nil {
			continue
		}
		v, err := eng.eval(fr, gd.Init)
		if err != nil {
			continue // malformed global initializers are caught by lowering, not here
		}
		*g[gd.Name] = v
	}
	return g
}
