// Package compiler lowers a parsed TSL ast.Module into ir.Module. Its
// Context generalizes naga's wgsl.Lowerer (wgsl/lower.go), which resets a
// flat map of locals per function because WGSL has no block-level
// shadowing; TSL does (spec §4.2 "a new scope layer per block"), so
// Context keeps an explicit push/pop scope-layer stack instead.
package compiler

import (
	"fmt"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/types"
)

// SymbolKind classifies a resolved name.
type SymbolKind uint8

const (
	SymLocal SymbolKind = iota
	SymParam
	SymGlobal
)

// Symbol is one resolved declaration visible in the current scope chain.
type Symbol struct {
	Name  string
	Type  types.DataType
	Flags types.VarFlags
	Kind  SymbolKind
	Index int // parameter position, meaningful only when Kind == SymParam

	// IRName is the name LocalRef/LocalLvalue/LocalDecl use at runtime.
	// It is equal to Name for the first local of that name the Lowerer
	// declares; every later local with the same source name, shadowing or
	// not, is mangled (see Lowerer.declareLocal)
	// so the flat, per-call runtime frame storage (package exec) never
	// aliases two distinct source locals onto the same slot. Meaningful
	// only when Kind == SymLocal.
	IRName string
}

// FuncSig is a function's resolved signature, built before any body is
// lowered so that calls (including forward and mutually recursive calls)
// resolve regardless of declaration order.
type FuncSig struct {
	Name       string
	Params     []ParamSig
	ReturnType types.DataType
	IsShader   bool
}

// ParamSig is one resolved parameter of a FuncSig.
type ParamSig struct {
	Name  string
	Type  types.DataType
	Flags types.VarFlags
}

// Context holds the symbol tables and scope stack active while lowering
// one ast.Module (spec §4.2 Context/scope-stack semantics).
type Context struct {
	scopes  []map[string]*Symbol
	funcs   map[string]*FuncSig
	structs map[string]*types.DataType
	structFields map[string][]StructFieldInfo
	globals map[string]types.DataType
	resources map[string]bool // name -> isTexture
	Closures *closure.Registry

	// loopDepth tracks nesting for compile-time break/continue diagnostics,
	// mirroring ir.Validate's structural check but catching the error at
	// lowering time where the offending statement's position is cheaply
	// available for a diagnostic.
	loopDepth int
}

// StructFieldInfo is one resolved field of a user struct declaration.
type StructFieldInfo struct {
	Name string
	Type types.DataType
}

// NewContext creates an empty lowering context.
func NewContext() *Context {
	return &Context{
		funcs:        make(map[string]*FuncSig),
		structs:      make(map[string]*types.DataType),
		structFields: make(map[string][]StructFieldInfo),
		globals:      make(map[string]types.DataType),
		resources:    make(map[string]bool),
		Closures:     closure.NewRegistry(),
	}
}

// PushScope opens a new lexical scope layer (entering a block).
func (c *Context) PushScope() {
	c.scopes = append(c.scopes, make(map[string]*Symbol))
}

// PopScope closes the innermost scope layer (leaving a block).
func (c *Context) PopScope() {
	if len(c.scopes) == 0 {
		return
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Declare adds a symbol to the innermost scope. Redeclaring a name already
// present in that same layer is an error; shadowing an outer layer is not.
func (c *Context) Declare(sym *Symbol) error {
	if len(c.scopes) == 0 {
		return fmt.Errorf("internal error: Declare called with no open scope")
	}
	top := c.scopes[len(c.scopes)-1]
	if _, exists := top[sym.Name]; exists {
		return fmt.Errorf("%q is already declared in this scope", sym.Name)
	}
	top[sym.Name] = sym
	return nil
}

// Resolve searches scope layers innermost-to-outermost, then globals.
func (c *Context) Resolve(name string) (*Symbol, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i][name]; ok {
			return sym, true
		}
	}
	if t, ok := c.globals[name]; ok {
		return &Symbol{Name: name, Type: t, Kind: SymGlobal}, true
	}
	return nil, false
}

// EnterLoop/ExitLoop bracket lowering of a loop body.
func (c *Context) EnterLoop() { c.loopDepth++ }
func (c *Context) ExitLoop()  { c.loopDepth-- }

// InLoop reports whether the lowerer is currently inside a loop body.
func (c *Context) InLoop() bool { return c.loopDepth > 0 }

// DeclareFunc registers a function signature, checked at Context build
// time so every call site — regardless of source order — can resolve it.
func (c *Context) DeclareFunc(sig *FuncSig) error {
	if _, exists := c.funcs[sig.Name]; exists {
		return fmt.Errorf("function %q is already declared", sig.Name)
	}
	c.funcs[sig.Name] = sig
	return nil
}

// LookupFunc resolves a function signature by name.
func (c *Context) LookupFunc(name string) (*FuncSig, bool) {
	sig, ok := c.funcs[name]
	return sig, ok
}

// DeclareStruct registers a struct type and its field list.
func (c *Context) DeclareStruct(name string, fields []StructFieldInfo) error {
	if _, exists := c.structFields[name]; exists {
		return fmt.Errorf("struct %q is already declared", name)
	}
	dt := types.DataType{Kind: types.KindStruct, StructName: name}
	c.structs[name] = &dt
	c.structFields[name] = fields
	return nil
}

// LookupStruct resolves a struct type by name.
func (c *Context) LookupStruct(name string) (types.DataType, bool) {
	if dt, ok := c.structs[name]; ok {
		return *dt, true
	}
	return types.DataType{}, false
}

// StructFields returns the resolved field list of a declared struct.
func (c *Context) StructFields(name string) ([]StructFieldInfo, bool) {
	f, ok := c.structFields[name]
	return f, ok
}

// DeclareGlobal registers a file-scope variable's type.
func (c *Context) DeclareGlobal(name string, t types.DataType) error {
	if _, exists := c.globals[name]; exists {
		return fmt.Errorf("global %q is already declared", name)
	}
	c.globals[name] = t
	return nil
}

// DeclareResource registers a texture2d or shader_resource handle name.
func (c *Context) DeclareResource(name string, isTexture bool) error {
	if _, exists := c.resources[name]; exists {
		return fmt.Errorf("resource %q is already declared", name)
	}
	c.resources[name] = isTexture
	return nil
}

// LookupResource reports whether name is a declared resource handle, and
// whether it is a texture (vs. an opaque shader_resource).
func (c *Context) LookupResource(name string) (isTexture bool, ok bool) {
	isTexture, ok = c.resources[name]
	return
}

// ResolveTypeName maps a TypeExpr's name (as scanned by the parser) to a
// resolved types.DataType, consulting struct declarations for names that
// are not one of TSL's built-in type keywords.
func (c *Context) ResolveTypeName(name string) (types.DataType, error) {
	switch name {
	case "int":
		return types.Int, nil
	case "float":
		return types.Float, nil
	case "double":
		return types.Double, nil
	case "bool":
		return types.Bool, nil
	case "vector", "color", types.Float3Name:
		return types.Float3, nil
	case "closure":
		return types.Closure, nil
	case "void":
		return types.Void, nil
	default:
		if dt, ok := c.LookupStruct(name); ok {
			return dt, nil
		}
		return types.DataType{}, fmt.Errorf("undefined type %q", name)
	}
}
