package system

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tsl-lang/tsl/exec"
	"github.com/tsl-lang/tsl/ir"
)

// ShadingContext is a per-goroutine compilation session (spec §6.2
// Context, §5 "one thread per ShadingContext"). It owns no mutable state
// beyond bookkeeping for diagnostics — the actual symbol tables live in
// the compiler.Context each ShaderUnitTemplate builds for itself, so two
// ShadingContexts never contend on shared state.
type ShadingContext struct {
	id     uuid.UUID
	system *ShadingSystem
}

// ID is this context's identity, for diagnostics (spec AMBIENT STACK).
func (c *ShadingContext) ID() uuid.UUID { return c.id }

// BeginShaderUnitTemplate starts building a named shader-unit template
// (spec §6.2 Context::begin_shader_unit_template).
func (c *ShadingContext) BeginShaderUnitTemplate(name string) *ShaderUnitTemplate {
	return &ShaderUnitTemplate{name: name, ctx: c}
}

// EndShaderUnitTemplate finalizes a template: lowering, if not already
// done via CompileShaderSource, is required to have produced a module by
// this point (spec §6.2 Context::end_shader_unit_template). Every
// template must bracket its construction with these two calls even when
// CompileShaderSource already ran, since that is where the template's
// module becomes immutable (spec §5 "immutable after
// end_shader_unit_template").
func (c *ShadingContext) EndShaderUnitTemplate(t *ShaderUnitTemplate) (*ShaderUnitTemplate, error) {
	if t.module == nil {
		return nil, fmt.Errorf("shader unit template %q has no compiled source", t.name)
	}
	t.sealed = true
	return t, nil
}

// BeginShaderGroupTemplate starts building a named shader-group template
// (spec §6.2 Context::begin_shader_group_template).
func (c *ShadingContext) BeginShaderGroupTemplate(name string) *ShaderGroupTemplate {
	return &ShaderGroupTemplate{
		name:     name,
		ctx:      c,
		units:    map[string]*groupUnit{},
		defaults: map[unitArgKey]defaultValue{},
	}
}

// EndShaderGroupTemplate resolves the group's connection graph into one
// merged ir.Module with a synthetic wrapper root function (spec §4.8,
// §6.2 Context::end_shader_group_template). The returned status mirrors
// ShadingContext.ResolveShaderInstance's enum so callers can treat group
// and instance resolution uniformly.
func (c *ShadingContext) EndShaderGroupTemplate(g *ShaderGroupTemplate) (*ShaderGroupTemplate, ResolvingStatus, error) {
	module, exposed, status, err := resolveGroup(g)
	if status != Succeed {
		return nil, status, err
	}
	g.module = module
	g.exposedArgs = exposed
	g.sealed = true
	return g, Succeed, nil
}

// ResolveShaderInstance builds an exec.Program for a resolved instance's
// template, caching the result on the instance (spec §4.9, §6.2
// Context::resolve_shader_instance).
func (c *ShadingContext) ResolveShaderInstance(inst *ShaderInstance) ResolvingStatus {
	module := inst.module()
	if module == nil {
		inst.status = InvalidShaderGroupTemplate
		return inst.status
	}
	if inst.allowVerify {
		if errs := ir.Validate(module); len(errs) > 0 {
			inst.status = FunctionVerificationFailed
			inst.lastErr = errs[0]
			return inst.status
		}
	}
	program, err := exec.Compile(module, exec.Options{
		Closures:  c.system.Closures(),
		Resources: inst.resources,
	})
	if err != nil {
		inst.status = FunctionVerificationFailed
		inst.lastErr = err
		return inst.status
	}
	inst.program = program
	inst.status = Succeed
	inst.lastErr = nil
	return inst.status
}
