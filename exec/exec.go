// Package exec takes the place of an LLVM JIT backend in the original
// implementation: instead of emitting machine code, it compiles an
// ir.Module into a Program that a tree-walking Engine executes directly.
// The shape mirrors naga's own backends (spirv.NewBackend(opts).Compile
// (module), wgsl/... ): an Options struct configures a Backend-like type
// whose Compile method turns an *ir.Module into the runnable artifact.
package exec

import (
	"fmt"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/ir"
)

// Options configures a Compile call.
type Options struct {
	// Closures is the registry make_closure<Name> lookups resolve
	// against; it must be the same registry package compiler lowered
	// against, or closure IDs embedded in the program will not match.
	Closures *closure.Registry
	// Resources maps a texture2d/shader_resource declaration's name to
	// the opaque handle the host registered for it (spec §4.5).
	Resources map[string]interface{}
}

// Backend compiles a lowered module into a directly runnable Program,
// following naga's per-target backend shape.
type Backend struct {
	opts Options
}

// NewBackend creates a Backend configured by opts.
func NewBackend(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Compile turns a lowered ir.Module into a Program ready for Invoke.
func (b *Backend) Compile(module *ir.Module) (*Program, error) {
	if errs := ir.Validate(module); len(errs) > 0 {
		return nil, fmt.Errorf("%v", errs[0])
	}
	p := &Program{
		module:    module,
		funcs:     make(map[string]*ir.Function, len(module.Functions)),
		structs:   make(map[string][]ir.StructMember, len(module.Structs)),
		closures:  b.opts.Closures,
		resources: b.opts.Resources,
	}
	if p.closures == nil {
		p.closures = closure.NewRegistry()
	}
	for _, fn := range module.Functions {
		p.funcs[fn.Name] = fn
	}
	for _, st := range module.Structs {
		p.structs[st.Name] = st.Members
	}
	for _, g := range module.Globals {
		p.globalDecls = append(p.globalDecls, g)
	}
	return p, nil
}

// Compile is a convenience wrapper around NewBackend(opts).Compile(module),
// mirroring how naga's cmd/nagac calls straight through a default backend.
func Compile(module *ir.Module, opts Options) (*Program, error) {
	return NewBackend(opts).Compile(module)
}
