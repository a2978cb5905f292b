package system_test

import (
	"testing"
	"unsafe"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/system"
	"github.com/tsl-lang/tsl/types"
)

func newSystem(t *testing.T) *system.ShadingSystem {
	t.Helper()
	sys := system.NewShadingSystem()
	sys.RegisterCallback(system.NewDefaultHostCallback())
	return sys
}

func compileUnit(t *testing.T, ctx *system.ShadingContext, name, source string) *system.ShaderUnitTemplate {
	t.Helper()
	unit := ctx.BeginShaderUnitTemplate(name)
	if err := unit.CompileShaderSource(source); err != nil {
		t.Fatalf("%s: compile: %v", name, err)
	}
	sealed, err := ctx.EndShaderUnitTemplate(unit)
	if err != nil {
		t.Fatalf("%s: end template: %v", name, err)
	}
	return sealed
}

func floatVal(v float32) runtime.Value { return runtime.Value{Type: types.Float, Float: v} }

// scenario 3 (spec §8): make_closure<lambert>(11, 2.0) produces a root
// node with the registered id and the argument fields in their declared
// offsets.
func TestLambertClosure(t *testing.T) {
	sys := newSystem(t)
	if _, err := sys.RegisterClosureType("lambert", []closure.Field{
		{Name: "base_color", Type: types.Int},
		{Name: "normal", Type: types.Float},
	}); err != nil {
		t.Fatalf("register closure type: %v", err)
	}
	ctx := sys.MakeShadingContext()
	unit := compileUnit(t, ctx, "lambert_unit", `shader f(out closure o){ o = make_closure<lambert>(11, 2.0); }`)

	inst := unit.MakeShaderInstance(nil)
	if status := ctx.ResolveShaderInstance(inst); status != system.Succeed {
		t.Fatalf("resolve: %s: %v", status, inst.LastError())
	}

	ep, err := inst.GetFunction()
	if err != nil {
		t.Fatalf("get function: %v", err)
	}
	out, _, err := ep.Invoke(sys.Callback(), nil, []runtime.Value{{Type: types.Closure}})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	base, ok := out[0].Closure.(*closure.Base)
	if !ok || base == nil {
		t.Fatalf("o.Closure = %#v, want *closure.Base", out[0].Closure)
	}
	desc, _ := sys.Closures().Lookup("lambert")
	if base.ID != desc.ID {
		t.Fatalf("base.ID = %d, want %d", base.ID, desc.ID)
	}
	if baseColor := readInt32Field(base, desc, "base_color"); baseColor != 11 {
		t.Errorf("params.base_color = %d, want 11", baseColor)
	}
	if normal := readFloat32Field(base, desc, "normal"); normal != 2.0 {
		t.Errorf("params.normal = %v, want 2.0", normal)
	}
}

// scenario 4 (spec §8): weighted sum of two closures lowers to
// Mul(0.5, Add(Mul(0.3, lambert), microfacet)).
func TestScaledAndAddedClosure(t *testing.T) {
	sys := newSystem(t)
	if _, err := sys.RegisterClosureType("lambert", []closure.Field{
		{Name: "base_color", Type: types.Int},
		{Name: "normal", Type: types.Float},
	}); err != nil {
		t.Fatalf("register lambert: %v", err)
	}
	if _, err := sys.RegisterClosureType("microfacet", []closure.Field{
		{Name: "roughness", Type: types.Float},
		{Name: "ior", Type: types.Float},
	}); err != nil {
		t.Fatalf("register microfacet: %v", err)
	}
	ctx := sys.MakeShadingContext()
	unit := compileUnit(t, ctx, "mix_unit", `shader f(out closure o){
	o = (0.3 * make_closure<lambert>(13,4.0) + make_closure<microfacet>(123.0,5.0)) * 0.5;
}`)

	inst := unit.MakeShaderInstance(nil)
	if status := ctx.ResolveShaderInstance(inst); status != system.Succeed {
		t.Fatalf("resolve: %s: %v", status, inst.LastError())
	}
	ep, err := inst.GetFunction()
	if err != nil {
		t.Fatalf("get function: %v", err)
	}
	out, _, err := ep.Invoke(sys.Callback(), nil, []runtime.Value{{Type: types.Closure}})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	root, ok := out[0].Closure.(*closure.Base)
	if !ok || root == nil {
		t.Fatalf("o.Closure = %#v, want *closure.Base", out[0].Closure)
	}
	if root.ID != closure.IDMul {
		t.Fatalf("root.ID = %d, want %d (Mul)", root.ID, closure.IDMul)
	}
	rootMul := (*closure.Mul)(unsafe.Pointer(root))
	if rootMul.Weight != 0.5 {
		t.Errorf("root weight = %v, want 0.5", rootMul.Weight)
	}
	if rootMul.Child.ID != closure.IDAdd {
		t.Fatalf("root child ID = %d, want %d (Add)", rootMul.Child.ID, closure.IDAdd)
	}
	add := (*closure.Add)(unsafe.Pointer(rootMul.Child))

	lambertDesc, _ := sys.Closures().Lookup("lambert")
	if add.Left.ID != closure.IDMul {
		t.Fatalf("add.Left.ID = %d, want %d (Mul)", add.Left.ID, closure.IDMul)
	}
	leftMul := (*closure.Mul)(unsafe.Pointer(add.Left))
	if leftMul.Weight != 0.3 {
		t.Errorf("left weight = %v, want 0.3", leftMul.Weight)
	}
	if leftMul.Child.ID != lambertDesc.ID {
		t.Errorf("left child ID = %d, want lambert's %d", leftMul.Child.ID, lambertDesc.ID)
	}

	microfacetDesc, _ := sys.Closures().Lookup("microfacet")
	if add.Right.ID != microfacetDesc.ID {
		t.Errorf("add.Right.ID = %d, want microfacet's %d", add.Right.ID, microfacetDesc.ID)
	}
}

// scenario 6 (spec §8): a group with one unit, a default input bound to
// the TSL-global layout.
func TestGroupWithDefaultInput(t *testing.T) {
	sys := newSystem(t)
	ctx := sys.MakeShadingContext()

	layout := []compiler.GlobalLayoutField{{Name: "intensity", Type: types.Float}}

	outUnit := ctx.BeginShaderUnitTemplate("output_node")
	if err := outUnit.RegisterTSLGlobal(layout); err != nil {
		t.Fatalf("register global: %v", err)
	}
	if err := outUnit.CompileShaderSource(`shader output_node(float in_var, out float out_bxdf){ out_bxdf = in_var; }`); err != nil {
		t.Fatalf("compile: %v", err)
	}
	sealedUnit, err := ctx.EndShaderUnitTemplate(outUnit)
	if err != nil {
		t.Fatalf("end unit template: %v", err)
	}

	group := ctx.BeginShaderGroupTemplate("g")
	if err := group.AddShaderUnit("node", sealedUnit, true); err != nil {
		t.Fatalf("add unit: %v", err)
	}
	if err := group.ExposeShaderArgument("node", "out_bxdf", true, ""); err != nil {
		t.Fatalf("expose output: %v", err)
	}
	if err := group.InitShaderInput("node", "in_var", floatVal(123)); err != nil {
		t.Fatalf("init input: %v", err)
	}

	sealedGroup, status, err := ctx.EndShaderGroupTemplate(group)
	if status != system.Succeed {
		t.Fatalf("end group template: %s: %v", status, err)
	}

	inst := sealedGroup.MakeShaderInstance(nil)
	if status := ctx.ResolveShaderInstance(inst); status != system.Succeed {
		t.Fatalf("resolve: %s: %v", status, inst.LastError())
	}

	ep, err := inst.GetFunction()
	if err != nil {
		t.Fatalf("get function: %v", err)
	}
	out, _, err := ep.Invoke(sys.Callback(), nil, []runtime.Value{floatVal(0)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[0].Float != 123 {
		t.Fatalf("output = %v, want 123", out[0].Float)
	}
}

func TestResolvingStatusUndefinedShaderUnit(t *testing.T) {
	sys := newSystem(t)
	ctx := sys.MakeShadingContext()
	group := ctx.BeginShaderGroupTemplate("broken")
	if err := group.ConnectShaderUnits("a", "out", "b", "in"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	_, status, _ := ctx.EndShaderGroupTemplate(group)
	if status != system.ShaderGroupWithoutRoot && status != system.UndefinedShaderUnit {
		t.Fatalf("status = %s, want ShaderGroupWithoutRoot or UndefinedShaderUnit", status)
	}
}

func readInt32Field(base *closure.Base, desc *closure.Descriptor, name string) int32 {
	for _, f := range desc.Fields {
		if f.Name == name {
			p := (*int32)(unsafe.Pointer(uintptr(base.Params) + uintptr(f.Offset)))
			return *p
		}
	}
	return 0
}

func readFloat32Field(base *closure.Base, desc *closure.Descriptor, name string) float32 {
	for _, f := range desc.Fields {
		if f.Name == name {
			p := (*float32)(unsafe.Pointer(uintptr(base.Params) + uintptr(f.Offset)))
			return *p
		}
	}
	return 0
}
