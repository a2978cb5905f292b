package exec

import (
	"fmt"

	"github.com/tsl-lang/tsl/ir"
	"github.com/tsl-lang/tsl/runtime"
)

// engine holds everything shared across one Invoke call: the compiled
// program, the host callback surface, the TSL-global field values, and
// this call's private copy of file-scope variables.
type engine struct {
	program *Program
	host    runtime.HostCallback
	global  map[string]runtime.Value
	globals map[string]*runtime.Value
}

// frame holds one function activation's storage: parameters by position
// and locals by (possibly mangled, see compiler.Lowerer.declareLocal)
// name.
type frame struct {
	params []*runtime.Value
	locals map[string]*runtime.Value
}

func (e *engine) newFrame(fn *ir.Function, args []runtime.Value) *frame {
	fr := &frame{locals: make(map[string]*runtime.Value)}
	if fn != nil {
		fr.params = make([]*runtime.Value, len(fn.Params))
		for i := range fn.Params {
			v := args[i]
			fr.params[i] = &v
		}
	}
	return fr
}

type signalKind uint8

const (
	sigNone signalKind = iota
	sigReturn
	sigBreak
	sigContinue
)

type signal struct {
	kind  signalKind
	value runtime.Value
}

func (e *engine) execBlock(fr *frame, b *ir.Block) (signal, error) {
	for _, s := range b.Stmts {
		sig, err := e.execStmt(fr, s)
		if err != nil {
			return signal{}, err
		}
		if sig.kind != sigNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func (e *engine) execStmt(fr *frame, s ir.Statement) (signal, error) {
	switch st := s.(type) {
	case *ir.Block:
		return e.execBlock(fr, st)
	case *ir.LocalDecl:
		return e.execLocalDecl(fr, st)
	case *ir.Assign:
		v, err := e.eval(fr, st.Value)
		if err != nil {
			return signal{}, err
		}
		return signal{}, e.store(fr, st.Target, v)
	case *ir.ExprStmt:
		_, err := e.eval(fr, st.X)
		return signal{}, err
	case *ir.Return:
		if st.Value == nil {
			return signal{kind: sigReturn}, nil
		}
		v, err := e.eval(fr, st.Value)
		if err != nil {
			return signal{}, err
		}
		return signal{kind: sigReturn, value: v}, nil
	case *ir.If:
		cond, err := e.eval(fr, st.Cond)
		if err != nil {
			return signal{}, err
		}
		if truthy(cond) {
			return e.execStmt(fr, st.Then)
		}
		if st.Else != nil {
			return e.execStmt(fr, st.Else)
		}
		return signal{}, nil
	case *ir.While:
		for {
			cond, err := e.eval(fr, st.Cond)
			if err != nil {
				return signal{}, err
			}
			if !truthy(cond) {
				return signal{}, nil
			}
			sig, err := e.execStmt(fr, st.Body)
			if err != nil {
				return signal{}, err
			}
			switch sig.kind {
			case sigBreak:
				return signal{}, nil
			case sigReturn:
				return sig, nil
			}
		}
	case *ir.DoWhile:
		for {
			sig, err := e.execStmt(fr, st.Body)
			if err != nil {
				return signal{}, err
			}
			switch sig.kind {
			case sigBreak:
				return signal{}, nil
			case sigReturn:
				return sig, nil
			}
			cond, err := e.eval(fr, st.Cond)
			if err != nil {
				return signal{}, err
			}
			if !truthy(cond) {
				return signal{}, nil
			}
		}
	case *ir.For:
		if st.Init != nil {
			if _, err := e.execStmt(fr, st.Init); err != nil {
				return signal{}, err
			}
		}
		for {
			if st.Cond != nil {
				cond, err := e.eval(fr, st.Cond)
				if err != nil {
					return signal{}, err
				}
				if !truthy(cond) {
					return signal{}, nil
				}
			}
			sig, err := e.execStmt(fr, st.Body)
			if err != nil {
				return signal{}, err
			}
			switch sig.kind {
			case sigBreak:
				return signal{}, nil
			case sigReturn:
				return sig, nil
			}
			if st.Update != nil {
				if _, err := e.execStmt(fr, st.Update); err != nil {
					return signal{}, err
				}
			}
		}
	case *ir.Break:
		return signal{kind: sigBreak}, nil
	case *ir.Continue:
		return signal{kind: sigContinue}, nil
	default:
		return signal{}, fmt.Errorf("internal error: unhandled statement type %T", s)
	}
}

func (e *engine) execLocalDecl(fr *frame, d *ir.LocalDecl) (signal, error) {
	v := e.zeroValue(d.Type)
	if d.IsArray {
		size := 0
		if d.ArrSize != nil {
			szVal, err := e.eval(fr, d.ArrSize)
			if err != nil {
				return signal{}, err
			}
			size = int(asInt32(szVal))
		}
		v.Arr = make([]runtime.Value, size)
		for i := range v.Arr {
			v.Arr[i] = e.zeroValue(d.Type)
		}
	}
	if d.Init != nil {
		init, err := e.eval(fr, d.Init)
		if err != nil {
			return signal{}, err
		}
		v = init
	}
	fr.locals[d.Name] = &v
	return signal{}, nil
}
