// Package types defines TSL's primitive type system.
package types

import "fmt"

// Kind identifies the primitive category of a DataType.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindDouble
	KindBool
	KindClosure
	KindStruct
	// KindResource marks a texture/shader-resource handle. It carries no
	// arithmetic semantics; it can only appear inside texture2d_sample*
	// angle brackets or make_closure arguments (spec §4.5).
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindClosure:
		return "closure"
	case KindStruct:
		return "struct"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// DataType is a tagged pair {kind, struct_name?} as defined in spec §3.1.
// Two DataTypes are equal iff both Kind and StructName match.
type DataType struct {
	Kind       Kind
	StructName string // only meaningful when Kind == KindStruct
}

func (d DataType) String() string {
	if d.Kind == KindStruct {
		return d.StructName
	}
	return d.Kind.String()
}

// Equal reports whether two DataTypes denote the same type.
func (d DataType) Equal(o DataType) bool {
	return d.Kind == o.Kind && (d.Kind != KindStruct || d.StructName == o.StructName)
}

// Built-in primitive types.
var (
	Void    = DataType{Kind: KindVoid}
	Int     = DataType{Kind: KindInt}
	Float   = DataType{Kind: KindFloat}
	Double  = DataType{Kind: KindDouble}
	Bool    = DataType{Kind: KindBool}
	Closure = DataType{Kind: KindClosure}
)

// Float3Name is the name of the built-in vector/color struct type.
const Float3Name = "float3"

// Float3 is the built-in vector/color struct {x, y, z: float} (aliases r,g,b).
var Float3 = DataType{Kind: KindStruct, StructName: Float3Name}

// Float3Fields maps field name, including the r/g/b aliases, to its index.
var Float3Fields = map[string]int{
	"x": 0, "y": 1, "z": 2,
	"r": 0, "g": 1, "b": 2,
}

// IsNumeric reports whether a DataType participates in arithmetic.
func (d DataType) IsNumeric() bool {
	switch d.Kind {
	case KindInt, KindFloat, KindDouble:
		return true
	case KindStruct:
		return d.StructName == Float3Name
	default:
		return false
	}
}

// IsInteger reports whether a DataType uses integer semantics.
func (d DataType) IsInteger() bool {
	return d.Kind == KindInt
}

// IsFloating reports whether a DataType uses floating-point semantics.
func (d DataType) IsFloating() bool {
	return d.Kind == KindFloat || d.Kind == KindDouble
}

// VarFlags is a bitmask of variable/argument configuration flags (spec §3.2).
type VarFlags uint8

const (
	FlagNone   VarFlags = 0
	FlagInput  VarFlags = 1 << 0
	FlagOutput VarFlags = 1 << 1
	FlagConst  VarFlags = 1 << 2
)

func (f VarFlags) Has(flag VarFlags) bool { return f&flag != 0 }

func (f VarFlags) String() string {
	s := ""
	if f.Has(FlagInput) {
		s += "in "
	}
	if f.Has(FlagOutput) {
		s += "out "
	}
	if f.Has(FlagConst) {
		s += "const "
	}
	if s == "" {
		return "(none)"
	}
	return s
}

// Variable describes a declared variable or parameter: name, type, and
// configuration flags (spec §3.2).
type Variable struct {
	Name  string
	Type  DataType
	Flags VarFlags
}

func (v Variable) String() string {
	return fmt.Sprintf("%s%s %s", v.Flags, v.Type, v.Name)
}
