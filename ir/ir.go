// Package ir is TSL's intermediate representation: a resolved, fully
// typed expression/statement tree produced by package compiler and
// consumed by package exec. Unlike a handle-based SSA arena (which earns
// its keep when a backend needs structural type dedup for things like
// vectors, matrices, and image types), TSL's type system is small enough
// that expressions simply carry their resolved types.DataType directly.
package ir

import "github.com/tsl-lang/tsl/types"

// Module is a fully lowered TSL translation unit.
type Module struct {
	Structs   []*StructType
	Globals   []*GlobalVar
	Functions []*Function
}

// StructType is a lowered structure layout.
type StructType struct {
	Name    string
	Members []StructMember
}

// StructMember is one field of a StructType, with its byte offset within
// the structure (spec §4.7 layout rules apply to closures; plain structs
// are laid out in declaration order, each member packed directly after
// the previous one with no alignment padding).
type StructMember struct {
	Name   string
	Type   types.DataType
	Offset int
}

// GlobalVar is a file-scope variable or array.
type GlobalVar struct {
	Name    string
	Type    types.DataType
	IsArray bool
	ArrSize Expression // nil unless IsArray and size known at lower time
	Init    Expression
}

// Function is a lowered function or shader-unit root.
type Function struct {
	Name       string
	Params     []Param
	ReturnType types.DataType
	IsShader   bool
	Body       *Block

	// ExposedArgs lists the parameters this function exposes for a
	// shader-group template's connect/default wiring (spec §4.8);
	// populated only for IsShader roots.
	ExposedArgs []string
}

// Param is one resolved function parameter.
type Param struct {
	Name  string
	Type  types.DataType
	Flags types.VarFlags
}

// IsOutput reports whether this parameter is passed by pointer because it
// is an OUTPUT argument (spec §4.6).
func (p Param) IsOutput() bool { return p.Flags.Has(types.FlagOutput) }
