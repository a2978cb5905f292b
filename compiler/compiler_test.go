package compiler_test

import (
	"testing"

	"github.com/tsl-lang/tsl/ast"
	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/types"
)

func parseSource(t *testing.T, source string) *ast.Module {
	t.Helper()
	tokens, err := ast.NewLexer(source).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	mod, err := ast.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mod
}

func TestLowerShadowedLocalsGetDistinctNames(t *testing.T) {
	mod := parseSource(t, `
shader f(out int r){
	int x = 1;
	{
		int x = 2;
		r = x;
	}
}`)
	irMod, _, err := compiler.Lower(mod, compiler.Options{})
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if len(irMod.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(irMod.Functions))
	}
	var names []string
	var collect func(b *ir.Block)
	collect = func(b *ir.Block) {
		for _, s := range b.Stmts {
			switch st := s.(type) {
			case *ir.LocalDecl:
				names = append(names, st.Name)
			case *ir.Block:
				collect(st)
			}
		}
	}
	collect(irMod.Functions[0].Body)
	if len(names) != 2 || names[0] == names[1] {
		t.Fatalf("local names = %q, want two distinct names", names)
	}
}

// closure + non-closure compiles to an error (spec §8 boundary
// behaviours).
func TestAddingClosureAndNonClosureIsAnError(t *testing.T) {
	mod := parseSource(t, `shader f(out closure o){ o = make_closure<lambert>(1) + 1; }`)
	reg := closure.NewRegistry()
	if _, err := reg.Register("lambert", []closure.Field{{Name: "x", Type: types.Int}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := compiler.Lower(mod, compiler.Options{Closures: reg})
	if err == nil {
		t.Fatal("lower succeeded, want an error adding a closure to a non-closure value")
	}
}

// closure * closure compiles to an error (spec §8 boundary behaviours).
func TestMultiplyingTwoClosuresIsAnError(t *testing.T) {
	mod := parseSource(t, `shader f(out closure o){ o = make_closure<lambert>(1) * make_closure<lambert>(2); }`)
	reg := closure.NewRegistry()
	if _, err := reg.Register("lambert", []closure.Field{{Name: "x", Type: types.Int}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := compiler.Lower(mod, compiler.Options{Closures: reg})
	if err == nil {
		t.Fatal("lower succeeded, want an error multiplying two closures")
	}
}

func TestFloat3ConstructorWithFourArgumentsWarnsAndDrops(t *testing.T) {
	mod := parseSource(t, `shader f(out float3 v){ v = float3(1.0f, 2.0f, 3.0f, 4.0f); }`)
	_, warnings, err := compiler.Lower(mod, compiler.Options{})
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a warning about the dropped fourth argument")
	}
}

func TestUndefinedVariableIsAnError(t *testing.T) {
	mod := parseSource(t, `shader f(out int r){ r = undefined_var; }`)
	if _, _, err := compiler.Lower(mod, compiler.Options{}); err == nil {
		t.Fatal("lower succeeded on an undefined variable reference, want an error")
	}
}
