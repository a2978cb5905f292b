package system

import (
	"fmt"

	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
)

// groupUnit is one unit instance added to a group template, keyed by its
// group-local name (spec §6.2 add_shader_unit's local_name).
type groupUnit struct {
	localName string
	template  *ShaderUnitTemplate
	isRoot    bool
}

// connection is one producer-output to consumer-input wire (spec §4.8
// step 2's connection graph edge).
type connection struct {
	srcUnit, srcArg string
	dstUnit, dstArg string
}

// ExposedArg describes one argument the group's wrapper function exposes
// to the host, in expose-call order (spec §4.8 exposed argument
// descriptor).
type ExposedArg struct {
	Name       string
	SourceUnit string
	SourceArg  string
	IsOutput   bool
	Type       string
}

type unitArgKey struct {
	unit, arg string
}

// defaultValue is a registered fallback for an unconnected, unexposed
// input (spec §6.2 init_shader_input).
type defaultValue struct {
	value runtime.Value
}

// ShaderGroupTemplate combines multiple shader-unit templates into one
// resolvable instance by wiring their inputs and outputs together (spec
// §3.6, §4.8, §6.2).
type ShaderGroupTemplate struct {
	name string
	ctx  *ShadingContext

	units       map[string]*groupUnit
	unitOrder   []string
	connections []connection
	exposeOrder []unitArgKey
	exposed     map[unitArgKey]exposeInfo
	defaults    map[unitArgKey]defaultValue

	sealed      bool
	module      *ir.Module
	exposedArgs []ExposedArg
}

type exposeInfo struct {
	isOutput bool
	alias    string
}

// AddShaderUnit adds one unit instance to the group under a group-local
// name (spec §6.2 g.add_shader_unit). Exactly one unit in a group must
// have isRoot set.
func (g *ShaderGroupTemplate) AddShaderUnit(localName string, tmpl *ShaderUnitTemplate, isRoot bool) error {
	if g.sealed {
		return fmt.Errorf("shader group template %q is sealed", g.name)
	}
	if _, exists := g.units[localName]; exists {
		return fmt.Errorf("unit %q already added to group %q", localName, g.name)
	}
	g.units[localName] = &groupUnit{localName: localName, template: tmpl, isRoot: isRoot}
	g.unitOrder = append(g.unitOrder, localName)
	return nil
}

// ConnectShaderUnits wires a producer unit's output argument to a
// consumer unit's input argument (spec §6.2
// g.connect_shader_units, §4.8 step 2).
func (g *ShaderGroupTemplate) ConnectShaderUnits(srcUnit, srcArg, dstUnit, dstArg string) error {
	if g.sealed {
		return fmt.Errorf("shader group template %q is sealed", g.name)
	}
	g.connections = append(g.connections, connection{srcUnit: srcUnit, srcArg: srcArg, dstUnit: dstUnit, dstArg: dstArg})
	return nil
}

// ExposeShaderArgument exposes one unit's parameter on the group's
// wrapper function, optionally under an alias (spec §6.2
// g.expose_shader_argument). The wrapper's parameter order follows the
// order expose calls are made in (spec §4.8 step 5, §8 testable
// property).
func (g *ShaderGroupTemplate) ExposeShaderArgument(unit, arg string, isOutput bool, alias string) error {
	if g.sealed {
		return fmt.Errorf("shader group template %q is sealed", g.name)
	}
	if g.exposed == nil {
		g.exposed = make(map[unitArgKey]exposeInfo)
	}
	key := unitArgKey{unit: unit, arg: arg}
	if _, exists := g.exposed[key]; exists {
		return fmt.Errorf("argument %s.%s already exposed on group %q", unit, arg, g.name)
	}
	g.exposed[key] = exposeInfo{isOutput: isOutput, alias: alias}
	g.exposeOrder = append(g.exposeOrder, key)
	return nil
}

// InitShaderInput registers a default value for a unit's input argument,
// used when that argument is neither connected nor exposed (spec §6.2
// g.init_shader_input, §4.8 step 5(c)).
func (g *ShaderGroupTemplate) InitShaderInput(unit, arg string, value runtime.Value) error {
	if g.sealed {
		return fmt.Errorf("shader group template %q is sealed", g.name)
	}
	g.defaults[unitArgKey{unit: unit, arg: arg}] = defaultValue{value: value}
	return nil
}

// ExposedArgs reports the resolved group's exposed-argument descriptors,
// in wrapper parameter order (spec §4.8). Valid only after
// ShadingContext.EndShaderGroupTemplate succeeds.
func (g *ShaderGroupTemplate) ExposedArgs() []ExposedArg { return g.exposedArgs }

// MakeShaderInstance builds an unresolved instance from this resolved
// group template (spec §6.2 Template::make_shader_instance).
func (g *ShaderGroupTemplate) MakeShaderInstance(resources map[string]interface{}) *ShaderInstance {
	return &ShaderInstance{group: g, resources: resources}
}
