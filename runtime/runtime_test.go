package runtime_test

import (
	"math"
	"testing"

	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

func TestFloat3Arithmetic(t *testing.T) {
	a := runtime.Float3{X: 1, Y: 2, Z: 3}
	b := runtime.Float3{X: 4, Y: 5, Z: 6}
	if got := a.Add(b); got != (runtime.Float3{X: 5, Y: 7, Z: 9}) {
		t.Errorf("Add = %v, want (5,7,9)", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
}

func TestFloat3ComponentAliasesColor(t *testing.T) {
	v := runtime.Float3{X: 1, Y: 2, Z: 3}
	if v.Component("r") != v.Component("x") {
		t.Errorf("r != x")
	}
	if v.Component("b") != 3 {
		t.Errorf("b = %v, want 3", v.Component("b"))
	}
}

func TestFloat3NormalizeZeroVector(t *testing.T) {
	v := runtime.Float3{}
	if got := v.Normalize(); got != v {
		t.Errorf("Normalize(zero) = %v, want zero unchanged", got)
	}
}

func TestSqrtIntrinsic(t *testing.T) {
	out, err := runtime.Builtins["sqrt"].Eval([]runtime.Value{{Type: types.Float, Float: 16}})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out.Float != 4 {
		t.Errorf("sqrt(16) = %v, want 4", out.Float)
	}
}

func TestClampIntrinsic(t *testing.T) {
	out, err := runtime.Builtins["clamp"].Eval([]runtime.Value{
		{Type: types.Float, Float: 5},
		{Type: types.Float, Float: 0},
		{Type: types.Float, Float: 1},
	})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out.Float != 1 {
		t.Errorf("clamp(5,0,1) = %v, want 1", out.Float)
	}
}

// Float compares are ordered; NaN never compares equal to anything (spec
// §8 boundary behaviours).
func TestNaNNeverEqual(t *testing.T) {
	nan := float32(math.NaN())
	if nan == nan {
		t.Fatal("NaN compared equal to itself")
	}
}

// Ordered compares: NaN != anything is false, not true (spec §4.4).
func TestNaNOrderedNotEqualIsFalse(t *testing.T) {
	nan := float64(math.NaN())
	if nan < 1.0 || nan > 1.0 {
		t.Fatal("ordered NaN != 1.0 reported true, want false")
	}
}
