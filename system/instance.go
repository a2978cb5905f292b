package system

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tsl-lang/tsl/exec"
	"github.com/tsl-lang/tsl/ir"
)

// ShaderInstance is a resolved, invocable realisation of a shader-unit
// or shader-group template (spec §3.6 ShaderInstance, §4.9). It keeps a
// strong reference to its template, matching the lifetime rule in §3.6
// ("a ShaderInstance keeps its template alive").
type ShaderInstance struct {
	id uuid.UUID

	unit  *ShaderUnitTemplate
	group *ShaderGroupTemplate

	resources map[string]interface{}

	allowVerify bool
	program     *exec.Program
	status      ResolvingStatus
	lastErr     error
}

func (i *ShaderInstance) module() *ir.Module {
	if i.unit != nil {
		return i.unit.module
	}
	if i.group != nil {
		return i.group.module
	}
	return nil
}

// rootName is the name of the callable shader-root function this
// instance exposes, resolved lazily from whichever template backs it.
func (i *ShaderInstance) rootName() (string, error) {
	if i.unit != nil {
		fn, err := i.unit.RootFunction()
		if err != nil {
			return "", err
		}
		return fn.Name, nil
	}
	if i.group != nil {
		return i.group.name, nil
	}
	return "", fmt.Errorf("shader instance has no backing template")
}

// GetFunction returns the instance's resolved entry point (spec §6.2
// Instance::get_function; §4.9 step 5's "raw function-pointer address"
// becomes a callable Go value rather than an integer, since this module
// has no foreign-function boundary to cross).
func (i *ShaderInstance) GetFunction() (*exec.EntryPoint, error) {
	if i.status != Succeed || i.program == nil {
		return nil, fmt.Errorf("shader instance is not resolved (status %s)", i.status)
	}
	name, err := i.rootName()
	if err != nil {
		return nil, err
	}
	return i.program.EntryPoint(name)
}

// Status reports the outcome of the most recent resolution attempt.
func (i *ShaderInstance) Status() ResolvingStatus { return i.status }

// LastError returns the error detail behind a non-Succeed Status, if any.
func (i *ShaderInstance) LastError() error { return i.lastErr }

// ID is this instance's identity, for diagnostics (spec AMBIENT STACK).
func (i *ShaderInstance) ID() uuid.UUID {
	if i.id == uuid.Nil {
		i.id = uuid.New()
	}
	return i.id
}
