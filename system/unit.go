package system

import (
	"fmt"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
)

// ShaderUnitTemplate is one compiled TSL translation unit, not yet
// resolved into an invocable instance (spec §3.6, §6.2). Between Begin
// and End, the host registers the unit's TSL-global layout and resource
// handles, then supplies its source text.
type ShaderUnitTemplate struct {
	name   string
	ctx    *ShadingContext
	sealed bool

	globalLayout []compiler.GlobalLayoutField
	resources    map[string]bool // name -> isTexture

	module   *ir.Module
	warnings []string

	// allowVerify gates the structural verification pass at resolve time
	// (spec §4.9 step 4); off by default so a template under active
	// development can still build an instance to experiment with.
	allowVerify bool
}

// RegisterTSLGlobal declares this unit's TSL-global field layout (spec
// §6.2 t.register_tsl_global). Must be called before CompileShaderSource
// if the source references global_value<field>.
func (t *ShaderUnitTemplate) RegisterTSLGlobal(fields []compiler.GlobalLayoutField) error {
	if t.sealed {
		return fmt.Errorf("shader unit template %q is sealed", t.name)
	}
	t.globalLayout = fields
	return nil
}

// RegisterShaderResource declares a texture2d or shader_resource handle
// name this unit's source may reference (spec §6.2
// t.register_shader_resource). The opaque handle value itself is
// supplied later, per ShaderInstance, via ShadingContext's resolve path.
func (t *ShaderUnitTemplate) RegisterShaderResource(name string, isTexture bool) error {
	if t.sealed {
		return fmt.Errorf("shader unit template %q is sealed", t.name)
	}
	if t.resources == nil {
		t.resources = make(map[string]bool)
	}
	if _, exists := t.resources[name]; exists {
		return fmt.Errorf("resource %q already registered on template %q", name, t.name)
	}
	t.resources[name] = isTexture
	return nil
}

// AllowVerify enables the structural verification pass at resolve time
// (spec §4.9 step 4, gated per-template).
func (t *ShaderUnitTemplate) AllowVerify(allow bool) { t.allowVerify = allow }

// CompileShaderSource lexes, parses and lowers TSL source text into this
// template's ir.Module (spec §6.2 t.compile_shader_source). Parse and
// lex errors stop at the first failure (spec §7 tier 1); lowering
// collects every semantic error it can before returning (spec §7 tier 2).
func (t *ShaderUnitTemplate) CompileShaderSource(source string) error {
	if t.sealed {
		return fmt.Errorf("shader unit template %q is sealed", t.name)
	}
	lexer := ast.NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.catchDebug(runtime.DebugError, err.Error())
		return fmt.Errorf("shader unit %q: lex error: %w", t.name, err)
	}
	mod, err := ast.NewParser(tokens).Parse()
	if err != nil {
		t.catchDebug(runtime.DebugError, err.Error())
		return fmt.Errorf("shader unit %q: parse error: %w", t.name, err)
	}

	irModule, warnings, err := compiler.Lower(mod, compiler.Options{
		GlobalLayout: t.globalLayout,
		Closures:     t.ctx.system.Closures(),
	})
	for _, w := range warnings {
		t.catchDebug(runtime.DebugWarning, w)
	}
	if err != nil {
		t.catchDebug(runtime.DebugError, err.Error())
		return fmt.Errorf("shader unit %q: %w", t.name, err)
	}
	t.module = irModule
	t.warnings = warnings
	return nil
}

// RootFunction returns this template's shader-root function, the one
// function lowered from a `shader` declaration (spec §4.1).
func (t *ShaderUnitTemplate) RootFunction() (*ir.Function, error) {
	for _, fn := range t.module.Functions {
		if fn.IsShader {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("shader unit template %q has no shader root", t.name)
}

// MakeShaderInstance builds an unresolved instance directly from this
// template, for the single-unit case where no group wiring is needed
// (spec §6.2 Template::make_shader_instance; spec §8's round-trip
// property "a group containing exactly one unit... behaves identically
// to running the unit directly" is what this path exists to satisfy).
func (t *ShaderUnitTemplate) MakeShaderInstance(resources map[string]interface{}) *ShaderInstance {
	return &ShaderInstance{unit: t, resources: resources, allowVerify: t.allowVerify}
}

func (t *ShaderUnitTemplate) catchDebug(level runtime.DebugLevel, message string) {
	cb := t.ctx.system.Callback()
	if cb == nil {
		return
	}
	cb.CatchDebug(level, fmt.Sprintf("[%s] %s", t.name, message))
}
