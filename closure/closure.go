// Package closure implements TSL's closure tree: the byte-exact node
// layout BxDFs are built from (spec §4.7, §6.3) and a process-wide
// registry of named closure types, adapted from naga's TypeRegistry
// dedup-by-key pattern (ir/registry.go) since a closure, like a SPIR-V
// type, must be registered exactly once and handed out a stable ID on
// every subsequent lookup.
package closure

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/tsl-lang/tsl/types"
)

// Sentinel closure ids (spec §6.3).
const (
	IDInvalid int32 = 0
	IDAdd     int32 = -1
	IDMul     int32 = -2
)

// Base is the common header every closure node begins with.
type Base struct {
	ID     int32
	_      int32 // padding to keep Params naturally aligned
	Params unsafe.Pointer
}

// Add is a closure-tree node combining two child closures by addition.
type Add struct {
	Base
	Left  *Base
	Right *Base
}

// Mul is a closure-tree node scaling a child closure by a float weight.
type Mul struct {
	Base
	Weight float32
	_      uint32 // padding
	Child  *Base
}

func init() {
	// ABI size checks (spec §6.3), run once at package initialisation: a
	// panic here means the struct layout has drifted from the byte-exact
	// contract the runtime and any native host callback rely on.
	const ptrSize = unsafe.Sizeof(uintptr(0))
	if unsafe.Sizeof(Base{}) != 8+ptrSize {
		panic("closure.Base size does not match the spec'd ABI layout")
	}
	if unsafe.Sizeof(Add{}) != unsafe.Sizeof(Base{})+2*ptrSize {
		panic("closure.Add size does not match the spec'd ABI layout")
	}
	if unsafe.Sizeof(Mul{}) != unsafe.Sizeof(Base{})+8+ptrSize {
		panic("closure.Mul size does not match the spec'd ABI layout")
	}
}

// Field describes one named, typed parameter of a registered closure.
type Field struct {
	Name   string
	Type   types.DataType
	Offset int
}

// Descriptor is a registered closure type: a name, its ID, and its
// parameter layout.
type Descriptor struct {
	Name   string
	ID     int32
	Fields []Field
	Size   int // total byte size of the closure's params block
}

// Registry assigns stable, process-wide IDs to named closures the first
// time each is registered and returns the same ID on every subsequent
// call — mirroring ir.TypeRegistry.GetOrCreate's dedup-by-key contract,
// but keyed by closure name instead of structural type shape (spec §4.7:
// closure registration is idempotent and does not recreate a closure
// description already registered under that name).
type Registry struct {
	mu          sync.Mutex
	byName      map[string]*Descriptor
	byID        map[int32]*Descriptor
	nextID      int32
}

// NewRegistry creates an empty closure registry. IDs are assigned starting
// at 1; 0 is reserved for IDInvalid and negative ids are reserved for the
// built-in Add/Mul combinators.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		byID:   make(map[int32]*Descriptor),
		nextID: 1,
	}
}

// Register records a closure type's field layout, returning its ID. A
// second call with the same name returns the existing descriptor's ID
// without modification, matching global_module.cpp's idempotent path
// rather than closure_register.cpp's double-push.
func (r *Registry) Register(name string, fields []Field) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		return existing, nil
	}

	offset := 0
	laidOut := make([]Field, len(fields))
	for i, f := range fields {
		laidOut[i] = Field{Name: f.Name, Type: f.Type, Offset: offset}
		offset += fieldSize(f.Type)
	}

	id := r.nextID
	r.nextID++
	desc := &Descriptor{Name: name, ID: id, Fields: laidOut, Size: offset}
	r.byName[name] = desc
	r.byID[id] = desc
	return desc, nil
}

// Lookup finds a registered closure by name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	return d, ok
}

// LookupByID finds a registered closure by its assigned ID.
func (r *Registry) LookupByID(id int32) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	return d, ok
}

func fieldSize(t types.DataType) int {
	switch t.Kind {
	case types.KindInt, types.KindFloat, types.KindBool:
		return 4
	case types.KindDouble:
		return 8
	case types.KindStruct:
		if t.StructName == types.Float3Name {
			return 12
		}
		return 0
	case types.KindClosure, types.KindResource:
		return int(unsafe.Sizeof(uintptr(0)))
	default:
		return 0
	}
}

// Allocator allocates raw memory for closure node construction (spec §4.7
// step a: "allocate memory for the node through the host callback").
type Allocator interface {
	Allocate(size int) []byte
}

// Construct performs the make_closure allocation thunk (spec §4.7 steps
// a-f): allocate the node's backing storage, write its id, then copy each
// field's already-encoded bytes into the params block at its registered
// offset. Field values are pre-encoded by the caller (package exec),
// which knows each argument's runtime representation.
func Construct(desc *Descriptor, alloc Allocator, fieldBytes [][]byte) (*Base, []byte, error) {
	if len(fieldBytes) != len(desc.Fields) {
		return nil, nil, fmt.Errorf("closure %q expects %d argument(s), got %d", desc.Name, len(desc.Fields), len(fieldBytes))
	}
	headerSize := int(unsafe.Sizeof(Base{}))
	mem := alloc.Allocate(headerSize + desc.Size)

	for i, f := range desc.Fields {
		n := copy(mem[headerSize+f.Offset:], fieldBytes[i])
		if n != len(fieldBytes[i]) {
			return nil, nil, fmt.Errorf("closure %q field %q: value does not fit its registered slot", desc.Name, f.Name)
		}
	}

	base := (*Base)(unsafe.Pointer(&mem[0]))
	base.ID = desc.ID
	if desc.Size > 0 {
		base.Params = unsafe.Pointer(&mem[headerSize])
	}
	return base, mem, nil
}

// ConstructAdd builds the built-in Add combinator node (spec §4.7 `a + b`
// between two closures), allocated through the same host callback as any
// other closure node.
func ConstructAdd(alloc Allocator, left, right *Base) *Base {
	mem := alloc.Allocate(int(unsafe.Sizeof(Add{})))
	add := (*Add)(unsafe.Pointer(&mem[0]))
	add.ID = IDAdd
	add.Left = left
	add.Right = right
	return &add.Base
}

// ConstructMul builds the built-in Mul combinator node (spec §4.7
// `weight * closure`).
func ConstructMul(alloc Allocator, weight float32, child *Base) *Base {
	mem := alloc.Allocate(int(unsafe.Sizeof(Mul{})))
	mul := (*Mul)(unsafe.Pointer(&mem[0]))
	mul.ID = IDMul
	mul.Weight = weight
	mul.Child = child
	return &mul.Base
}
