package closure

import (
	"testing"

	"github.com/tsl-lang/tsl/types"
)

type fakeAllocator struct{}

func (fakeAllocator) Allocate(size int) []byte { return make([]byte, size) }

// register_closure_type is idempotent by name (spec §8 invariant).
func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	d1, err := r.Register("lambert", []Field{
		{Name: "base_color", Type: types.Int},
		{Name: "normal", Type: types.Float},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	d2, err := r.Register("lambert", []Field{
		{Name: "base_color", Type: types.Int},
		{Name: "normal", Type: types.Float},
	})
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if d1.ID != d2.ID {
		t.Fatalf("re-registering %q returned a different id: %d != %d", "lambert", d1.ID, d2.ID)
	}
}

func TestConstructLayoutAndID(t *testing.T) {
	r := NewRegistry()
	desc, err := r.Register("lambert", []Field{
		{Name: "base_color", Type: types.Int},
		{Name: "normal", Type: types.Float},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	base, _, err := Construct(desc, fakeAllocator{}, [][]byte{
		{11, 0, 0, 0},
		{0, 0, 0, 0x40}, // 2.0f little-endian
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if base.ID != desc.ID {
		t.Fatalf("base.ID = %d, want %d", base.ID, desc.ID)
	}
	if desc.Fields[0].Offset != 0 || desc.Fields[1].Offset != 4 || desc.Size != 8 {
		t.Fatalf("layout = offsets (%d, %d) size %d, want (0, 4) size 8", desc.Fields[0].Offset, desc.Fields[1].Offset, desc.Size)
	}
	params := (*[8]byte)(base.Params)
	if *params != [8]byte{11, 0, 0, 0, 0, 0, 0, 0x40} {
		t.Fatalf("params = %v, want base_color 11 at offset 0 and 2.0f at offset 4", *params)
	}
}

func TestConstructAddMul(t *testing.T) {
	r := NewRegistry()
	desc, _ := r.Register("lambert", []Field{{Name: "x", Type: types.Int}})
	alloc := fakeAllocator{}
	leaf, _, err := Construct(desc, alloc, [][]byte{{1, 0, 0, 0}})
	if err != nil {
		t.Fatalf("construct leaf: %v", err)
	}

	mul := ConstructMul(alloc, 0.5, leaf)
	if mul.ID != IDMul {
		t.Fatalf("mul.ID = %d, want %d", mul.ID, IDMul)
	}

	add := ConstructAdd(alloc, leaf, mul)
	if add.ID != IDAdd {
		t.Fatalf("add.ID = %d, want %d", add.ID, IDAdd)
	}
}
