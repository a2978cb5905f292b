package exec_test

import (
	"testing"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/exec"
	"github.com/tsl-lang/tsl/runtime"
	"github.com/tsl-lang/tsl/types"
)

func compileSource(t *testing.T, source string) *exec.Program {
	t.Helper()
	tokens, err := ast.NewLexer(source).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	mod, err := ast.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	irMod, warnings, err := compiler.Lower(mod, compiler.Options{})
	if err != nil {
		t.Fatalf("lower: %v (warnings: %v)", err, warnings)
	}
	prog, err := exec.Compile(irMod, exec.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return prog
}

func intVal(v int32) runtime.Value   { return runtime.Value{Type: types.Int, Int: v} }
func floatVal(v float32) runtime.Value { return runtime.Value{Type: types.Float, Float: v} }

// scenario 1 (spec §8): shader f(out float v){ v = 5.0f; }
func TestReturnConstant(t *testing.T) {
	prog := compileSource(t, `shader f(out float v){ v = 5.0f; }`)
	ep, err := prog.EntryPoint("f")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{floatVal(0)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[0].Float != 5.0 {
		t.Fatalf("v = %v, want 5.0", out[0].Float)
	}
}

// scenario 2 (spec §8): o0=a+b; o1=a-b; o2=a*b; o3=a/b; o4=a%b; for a=23, b=12.
func TestArithmetic(t *testing.T) {
	prog := compileSource(t, `
shader f(int a, int b, out int o0, out int o1, out int o2, out int o3, out int o4){
	o0 = a + b;
	o1 = a - b;
	o2 = a * b;
	o3 = a / b;
	o4 = a % b;
}`)
	ep, err := prog.EntryPoint("f")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{
		intVal(23), intVal(12), intVal(0), intVal(0), intVal(0), intVal(0), intVal(0),
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	want := []int32{35, 11, 276, 1, 11}
	for i, w := range want {
		if got := out[i+2].Int; got != w {
			t.Errorf("o%d = %d, want %d", i, got, w)
		}
	}
}

// scenario 5 (spec §8): recursive factorial.
func TestFactorial(t *testing.T) {
	prog := compileSource(t, `
int factorial(int k){ if(!k) return 1; return k*factorial(k-1); }
shader main(int a, out int r){ r = factorial(a); }`)
	ep, err := prog.EntryPoint("main")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{intVal(10), intVal(0)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[1].Int != 3628800 {
		t.Fatalf("r = %d, want 3628800", out[1].Int)
	}
}

func TestFibonacci(t *testing.T) {
	prog := compileSource(t, `
int fib(int n){ if(n < 2) return n; return fib(n-1) + fib(n-2); }
shader main(int a, out int r){ r = fib(a); }`)
	ep, err := prog.EntryPoint("main")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{intVal(10), intVal(0)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[1].Int != 55 {
		t.Fatalf("r = %d, want 55", out[1].Int)
	}
}

// Integer addition in TSL wraps with two's-complement semantics matching
// the platform's signed 32-bit ops (spec §8 boundary behaviours).
func TestIntegerOverflowWraps(t *testing.T) {
	prog := compileSource(t, `shader f(int a, int b, out int r){ r = a + b; }`)
	ep, err := prog.EntryPoint("f")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{intVal(2147483647), intVal(1), intVal(0)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[2].Int != -2147483648 {
		t.Fatalf("r = %d, want -2147483648", out[2].Int)
	}
}

// NaN compares ordered: != is false, not true, when an operand is NaN
// (spec §4.4).
func TestNaNNotEqualIsOrderedFalse(t *testing.T) {
	prog := compileSource(t, `shader f(out bool r){
	float nan = 0.0f/0.0f;
	r = nan != 1.0f;
}`)
	ep, err := prog.EntryPoint("f")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{{Type: types.Bool}})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[0].Bool {
		t.Fatalf("nan != 1.0 = true, want false (ordered compare)")
	}
}

func TestFloat3Constructor(t *testing.T) {
	prog := compileSource(t, `shader f(out float3 zero, out float3 broadcast){
	zero = float3();
	broadcast = float3(2.0f);
}`)
	ep, err := prog.EntryPoint("f")
	if err != nil {
		t.Fatalf("entry point: %v", err)
	}
	out, _, err := ep.Invoke(nil, nil, []runtime.Value{
		{Type: types.Float3}, {Type: types.Float3},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out[0].Vec.X != 0 || out[0].Vec.Y != 0 || out[0].Vec.Z != 0 {
		t.Errorf("zero = %v, want (0,0,0)", out[0].Vec)
	}
	if out[1].Vec.X != 2 || out[1].Vec.Y != 2 || out[1].Vec.Z != 2 {
		t.Errorf("broadcast = %v, want (2,2,2)", out[1].Vec)
	}
}
