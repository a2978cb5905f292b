package exec

import (
	"fmt"

	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
)

// load reads an lvalue's current value, used by compound assignment and
// pre/post inc-dec to fetch the value before mutation.
func (e *engine) load(fr *frame, lv ir.Lvalue) (runtime.Value, error) {
	switch t := lv.(type) {
	case ir.LocalLvalue:
		v, ok := fr.locals[t.Name]
		if !ok {
			return runtime.Value{}, fmt.Errorf("internal error: undeclared local %q", t.Name)
		}
		return *v, nil
	case ir.ParamLvalue:
		return *fr.params[t.Index], nil
	case ir.GlobalLvalue:
		v, ok := e.globals[t.Name]
		if !ok {
			return runtime.Value{}, fmt.Errorf("internal error: undeclared global %q", t.Name)
		}
		return *v, nil
	case ir.FieldLvalue:
		base, err := e.load(fr, t.Base)
		if err != nil {
			return runtime.Value{}, err
		}
		return readField(base, t.Field)
	case ir.IndexLvalue:
		base, err := e.load(fr, t.Base)
		if err != nil {
			return runtime.Value{}, err
		}
		idxVal, err := e.eval(fr, t.Index)
		if err != nil {
			return runtime.Value{}, err
		}
		return readIndex(base, asInt32(idxVal))
	default:
		return runtime.Value{}, fmt.Errorf("internal error: unhandled lvalue type %T", lv)
	}
}

// store writes v into an lvalue, recursively rewriting enclosing
// composite values (struct fields, array elements) since runtime.Value
// components are not individually addressable Go memory.
func (e *engine) store(fr *frame, lv ir.Lvalue, v runtime.Value) error {
	switch t := lv.(type) {
	case ir.LocalLvalue:
		slot, ok := fr.locals[t.Name]
		if !ok {
			return fmt.Errorf("internal error: undeclared local %q", t.Name)
		}
		*slot = v
		return nil
	case ir.ParamLvalue:
		*fr.params[t.Index] = v
		return nil
	case ir.GlobalLvalue:
		slot, ok := e.globals[t.Name]
		if !ok {
			return fmt.Errorf("internal error: undeclared global %q", t.Name)
		}
		*slot = v
		return nil
	case ir.FieldLvalue:
		base, err := e.load(fr, t.Base)
		if err != nil {
			return err
		}
		updated, err := writeField(base, t.Field, v)
		if err != nil {
			return err
		}
		return e.store(fr, t.Base, updated)
	case ir.IndexLvalue:
		base, err := e.load(fr, t.Base)
		if err != nil {
			return err
		}
		idxVal, err := e.eval(fr, t.Index)
		if err != nil {
			return err
		}
		updated, err := writeIndex(base, asInt32(idxVal), v)
		if err != nil {
			return err
		}
		return e.store(fr, t.Base, updated)
	default:
		return fmt.Errorf("internal error: unhandled lvalue type %T", lv)
	}
}

func readIndex(base runtime.Value, idx int32) (runtime.Value, error) {
	if idx < 0 || int(idx) >= len(base.Arr) {
		return runtime.Value{}, fmt.Errorf("array index %d out of range (length %d)", idx, len(base.Arr))
	}
	return base.Arr[idx], nil
}

func writeIndex(base runtime.Value, idx int32, v runtime.Value) (runtime.Value, error) {
	if idx < 0 || int(idx) >= len(base.Arr) {
		return runtime.Value{}, fmt.Errorf("array index %d out of range (length %d)", idx, len(base.Arr))
	}
	base.Arr[idx] = v
	return base, nil
}
