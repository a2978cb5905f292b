package ir

import (
	"testing"

	"github.com/tsl-lang/tsl/types"
)

// break/continue outside any enclosing loop is a structural error caught
// by Validate, not left undefined (spec §9 open question).
func TestValidateRejectsBreakOutsideLoop(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{Stmts: []Statement{&Break{}}},
	}
	mod := &Module{Functions: []*Function{fn}}
	errs := Validate(mod)
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if errs[0].Function != "f" {
		t.Errorf("errs[0].Function = %q, want %q", errs[0].Function, "f")
	}
}

func TestValidateAllowsBreakInsideLoop(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{Stmts: []Statement{
			&While{Cond: nil, Body: &Block{Stmts: []Statement{&Break{}}}},
		}},
	}
	mod := &Module{Functions: []*Function{fn}}
	if errs := Validate(mod); len(errs) != 0 {
		t.Fatalf("Validate = %v, want no errors", errs)
	}
}

func TestValidateContinueNestedInIfInsideLoopIsAllowed(t *testing.T) {
	fn := &Function{
		Name: "f",
		Body: &Block{Stmts: []Statement{
			&For{Body: &If{
				Cond: nil,
				Then: &Block{Stmts: []Statement{&Continue{}}},
			}},
		}},
	}
	mod := &Module{Functions: []*Function{fn}}
	if errs := Validate(mod); len(errs) != 0 {
		t.Fatalf("Validate = %v, want no errors", errs)
	}
}

func TestResolveBinaryPromotesIntToDouble(t *testing.T) {
	got, err := ResolveBinary(OpAdd, types.Int, types.Double)
	if err != nil {
		t.Fatalf("ResolveBinary: %v", err)
	}
	if !got.Equal(types.Double) {
		t.Errorf("got %s, want double", got)
	}
}

func TestResolveBinaryComparisonAlwaysBool(t *testing.T) {
	got, err := ResolveBinary(OpLt, types.Int, types.Float)
	if err != nil {
		t.Fatalf("ResolveBinary: %v", err)
	}
	if !got.Equal(types.Bool) {
		t.Errorf("got %s, want bool", got)
	}
}

func TestResolveBinaryFloat3ScalarBroadcast(t *testing.T) {
	got, err := ResolveBinary(OpMul, types.Float3, types.Float)
	if err != nil {
		t.Fatalf("ResolveBinary: %v", err)
	}
	if !got.Equal(types.Float3) {
		t.Errorf("got %s, want float3", got)
	}
}

func TestResolveBinaryTwoClosuresIsAnError(t *testing.T) {
	closureType := types.DataType{Kind: types.KindClosure}
	if _, err := ResolveBinary(OpMul, closureType, closureType); err == nil {
		t.Fatal("ResolveBinary succeeded multiplying two closures, want an error")
	}
}

func TestPromoteWidensToDouble(t *testing.T) {
	if got := Promote(types.Float, types.Double); !got.Equal(types.Double) {
		t.Errorf("Promote(float, double) = %s, want double", got)
	}
}
