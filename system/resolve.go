package system

import (
	"fmt"

	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

// resolveGroup implements spec §4.8 steps 1-7: verify a unique root,
// topologically order units by their connection graph, check TSL-global
// layout consistency, inline each unit's functions under a group-local
// name, and build one wrapper root function that wires exposed
// arguments, connections and defaults together.
func resolveGroup(g *ShaderGroupTemplate) (*ir.Module, []ExposedArg, ResolvingStatus, error) {
	rootName, status, err := findRoot(g)
	if status != Succeed {
		return nil, nil, status, err
	}

	order, status, err := topoOrder(g)
	if status != Succeed {
		return nil, nil, status, err
	}

	if status, err := checkGlobalLayouts(g); status != Succeed {
		return nil, nil, status, err
	}

	module := &ir.Module{}
	// unitParams[unit][argName] -> (renamed function name, param index, param)
	type boundParam struct {
		fnName string
		index  int
		param  ir.Param
	}
	unitParams := make(map[string]map[string]boundParam)
	unitRootFn := make(map[string]string, len(g.unitOrder))
	seenStructs := make(map[string]bool)

	for _, localName := range g.unitOrder {
		u := g.units[localName]
		root, err := u.template.RootFunction()
		if err != nil {
			return nil, nil, UndefinedShaderUnit, err
		}
		funcNames := map[string]string{}
		globalNames := map[string]string{}
		for _, fn := range u.template.module.Functions {
			funcNames[fn.Name] = localName + "$" + fn.Name
		}
		for _, gv := range u.template.module.Globals {
			globalNames[gv.Name] = localName + "$" + gv.Name
		}
		for name := range u.template.resources {
			globalNames[name] = localName + "$" + name
		}

		for _, fn := range u.template.module.Functions {
			module.Functions = append(module.Functions, ir.RewriteNames(fn, funcNames, globalNames))
		}
		for _, gv := range u.template.module.Globals {
			module.Globals = append(module.Globals, &ir.GlobalVar{
				Name:    globalNames[gv.Name],
				Type:    gv.Type,
				IsArray: gv.IsArray,
				ArrSize: rewriteExprPublic(gv.ArrSize, funcNames, globalNames),
				Init:    rewriteExprPublic(gv.Init, funcNames, globalNames),
			})
		}
		for _, st := range u.template.module.Structs {
			if seenStructs[st.Name] {
				continue
			}
			seenStructs[st.Name] = true
			module.Structs = append(module.Structs, st)
		}

		unitRootFn[localName] = funcNames[root.Name]
		params := make(map[string]boundParam, len(root.Params))
		for i, p := range root.Params {
			params[p.Name] = boundParam{fnName: funcNames[root.Name], index: i, param: p}
		}
		unitParams[localName] = params
	}

	// wrapper parameter list, in expose-call order.
	var wrapperParams []ir.Param
	exposedArgs := make([]ExposedArg, 0, len(g.exposeOrder))
	wrapperIndex := make(map[unitArgKey]int, len(g.exposeOrder))
	for _, key := range g.exposeOrder {
		bp, ok := unitParams[key.unit][key.arg]
		if !ok {
			return nil, nil, InvalidExposedParameter, fmt.Errorf("exposed argument %s.%s does not name a parameter of unit %q", key.unit, key.arg, key.unit)
		}
		info := g.exposed[key]
		name := info.alias
		if name == "" {
			name = key.unit + "_" + key.arg
		}
		wrapperIndex[key] = len(wrapperParams)
		wrapperParams = append(wrapperParams, ir.Param{Name: name, Type: bp.param.Type, Flags: bp.param.Flags})
		exposedArgs = append(exposedArgs, ExposedArg{
			Name:       name,
			SourceUnit: key.unit,
			SourceArg:  key.arg,
			IsOutput:   info.isOutput,
			Type:       bp.param.Type.String(),
		})
	}

	// connection lookup: consumer (unit,arg) -> producer (unit,arg).
	connBy := make(map[unitArgKey]unitArgKey, len(g.connections))
	for _, c := range g.connections {
		connBy[unitArgKey{unit: c.dstUnit, arg: c.dstArg}] = unitArgKey{unit: c.srcUnit, arg: c.srcArg}
	}

	// tempName names the wrapper-local slot holding one unit output's
	// value, available to both a later connected consumer and (via an
	// extra Assign) an exposed wrapper output parameter.
	tempName := func(unit, arg string) string { return unit + "$" + arg }

	body := &ir.Block{}
	for _, localName := range order {
		root, _ := g.units[localName].template.RootFunction()

		args := make([]ir.Expression, len(root.Params))
		outArgs := map[int]ir.Lvalue{}
		var preDecls []ir.Statement

		for i, p := range root.Params {
			key := unitArgKey{unit: localName, arg: p.Name}
			isOutput := p.IsOutput()

			if isOutput {
				tmp := tempName(localName, p.Name)
				preDecls = append(preDecls, &ir.LocalDecl{Name: tmp, Type: p.Type})
				outArgs[i] = ir.LocalLvalue{Name: tmp}
				args[i] = nil
				continue
			}

			if producer, ok := connBy[key]; ok {
				args[i] = ir.LocalRef{Name: tempName(producer.unit, producer.arg), Type: p.Type}
				continue
			}
			if info, ok := g.exposed[key]; ok && !info.isOutput {
				args[i] = ir.ParamRef{Index: wrapperIndex[key], Name: p.Name, Type: p.Type}
				continue
			}
			if dv, ok := g.defaults[key]; ok {
				args[i] = valueToConstExpr(dv.value)
				continue
			}
			return nil, nil, ArgumentWithoutInitialization, fmt.Errorf("unit %q argument %q is neither connected, exposed, nor defaulted", localName, p.Name)
		}

		body.Stmts = append(body.Stmts, preDecls...)
		body.Stmts = append(body.Stmts, &ir.ExprStmt{X: ir.Call{
			Name:    unitRootFn[localName],
			Args:    args,
			Type:    root.ReturnType,
			OutArgs: outArgs,
		}})

		for _, p := range root.Params {
			if !p.IsOutput() {
				continue
			}
			key := unitArgKey{unit: localName, arg: p.Name}
			if info, ok := g.exposed[key]; ok && info.isOutput {
				body.Stmts = append(body.Stmts, &ir.Assign{
					Target: ir.ParamLvalue{Index: wrapperIndex[key], Name: wrapperParams[wrapperIndex[key]].Name},
					Value:  ir.LocalRef{Name: tempName(localName, p.Name), Type: p.Type},
				})
			}
		}
	}

	module.Functions = append(module.Functions, &ir.Function{
		Name:       rootName,
		Params:     wrapperParams,
		ReturnType: types.Void,
		IsShader:   true,
		Body:       body,
	})

	return module, exposedArgs, Succeed, nil
}

// valueToConstExpr turns a registered default (spec §6.2
// init_shader_input) into a literal IR expression.
func valueToConstExpr(v runtime.Value) ir.Expression {
	switch v.Type.Kind {
	case types.KindInt:
		return ir.ConstInt{Value: v.Int}
	case types.KindFloat:
		return ir.ConstFloat{Value: v.Float}
	case types.KindDouble:
		return ir.ConstDouble{Value: v.Double}
	case types.KindBool:
		return ir.ConstBool{Value: v.Bool}
	case types.KindStruct:
		return ir.Float3Lit{X: ir.ConstFloat{Value: v.Vec.X}, Y: ir.ConstFloat{Value: v.Vec.Y}, Z: ir.ConstFloat{Value: v.Vec.Z}}
	default:
		return ir.ConstInt{Value: 0}
	}
}

func rewriteExprPublic(e ir.Expression, fn, gl map[string]string) ir.Expression {
	if e == nil {
		return nil
	}
	dummy := &ir.Function{Name: "$", Body: &ir.Block{Stmts: []ir.Statement{&ir.Return{Value: e}}}}
	rewritten := ir.RewriteNames(dummy, fn, gl)
	return rewritten.Body.Stmts[0].(*ir.Return).Value
}

// findRoot verifies the group has exactly one unit marked as root (spec
// §4.8 step 1) and returns the group template's own name, used as the
// wrapper function's name.
func findRoot(g *ShaderGroupTemplate) (string, ResolvingStatus, error) {
	rootName := ""
	count := 0
	for _, name := range g.unitOrder {
		if g.units[name].isRoot {
			rootName = name
			count++
		}
	}
	if count != 1 {
		return "", ShaderGroupWithoutRoot, fmt.Errorf("shader group %q must designate exactly one root unit, found %d", g.name, count)
	}
	_ = rootName
	return g.name, Succeed, nil
}

// topoOrder orders units by the connection graph using Kahn's algorithm
// (spec §4.8 step 2), since no example repo in the retrieval pack pulls
// in a dedicated graph library for a plausible domain reason (see
// DESIGN.md).
func topoOrder(g *ShaderGroupTemplate) ([]string, ResolvingStatus, error) {
	indegree := make(map[string]int, len(g.unitOrder))
	edges := make(map[string][]string, len(g.unitOrder))
	for _, name := range g.unitOrder {
		indegree[name] = 0
	}
	for _, c := range g.connections {
		if _, ok := g.units[c.srcUnit]; !ok {
			return nil, UndefinedShaderUnit, fmt.Errorf("connection references undefined unit %q", c.srcUnit)
		}
		if _, ok := g.units[c.dstUnit]; !ok {
			return nil, UndefinedShaderUnit, fmt.Errorf("connection references undefined unit %q", c.dstUnit)
		}
		edges[c.srcUnit] = append(edges[c.srcUnit], c.dstUnit)
		indegree[c.dstUnit]++
	}

	var queue, order []string
	for _, name := range g.unitOrder {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range edges[n] {
			indegree[m]--
			if indegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	if len(order) != len(g.unitOrder) {
		return nil, ShaderGroupWithCycles, fmt.Errorf("shader group %q has a cycle in its connection graph", g.name)
	}
	return order, Succeed, nil
}

// checkGlobalLayouts verifies every unit that declares a TSL-global
// layout declares the same one (spec §4.8 step 3).
func checkGlobalLayouts(g *ShaderGroupTemplate) (ResolvingStatus, error) {
	var reference []compiler.GlobalLayoutField
	var referenceUnit string
	for _, name := range g.unitOrder {
		layout := g.units[name].template.globalLayout
		if len(layout) == 0 {
			continue
		}
		if reference == nil {
			reference = layout
			referenceUnit = name
			continue
		}
		if !layoutsEqual(reference, layout) {
			return InconsistentTSLGlobalType, fmt.Errorf(
				"unit %q's TSL-global layout (%s) is inconsistent with unit %q's (%s)",
				name, layoutString(layout), referenceUnit, layoutString(reference))
		}
	}
	return Succeed, nil
}
