// Package system is TSL's host-facing API: the process-wide shading
// system, per-thread compilation contexts, shader-unit/group templates,
// and resolved shader instances (spec §6.2). It plays the role
// spaghettifunk-anima's engine/systems package plays for a renderer
// subsystem — a singleton entry point plus per-caller contexts — adapted
// to a compiler-and-runtime domain instead of a GPU renderer.
package system

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tsl-lang/tsl/closure"
	"github.com/tsl-lang/tsl/compiler"
	"github.com/tsl-lang/tsl/runtime"
)

// HostCallback is the renderer-supplied implementation every resolved
// shader invocation calls back into (spec §4.10). It is package
// runtime's interface, re-exported here so host code importing only
// package system never needs to know the callback type lives one
// package lower (avoiding the exec<->system import cycle noted in
// DESIGN.md).
type HostCallback = runtime.HostCallback

// ResolvingStatus is the host-visible outcome of resolving a template or
// instance (spec §6.4).
type ResolvingStatus uint8

const (
	Succeed ResolvingStatus = iota
	InvalidInput
	InvalidDataType
	ShaderGroupWithoutRoot
	ShaderGroupWithCycles
	InvalidShaderGroupTemplate
	FunctionVerificationFailed
	UndefinedShaderUnit
	InvalidArgType
	ArgumentWithoutInitialization
	InconsistentTSLGlobalType
	InvalidExposedParameter
	UnspecifiedError
)

func (s ResolvingStatus) String() string {
	switch s {
	case Succeed:
		return "Succeed"
	case InvalidInput:
		return "InvalidInput"
	case InvalidDataType:
		return "InvalidDataType"
	case ShaderGroupWithoutRoot:
		return "ShaderGroupWithoutRoot"
	case ShaderGroupWithCycles:
		return "ShaderGroupWithCycles"
	case InvalidShaderGroupTemplate:
		return "InvalidShaderGroupTemplate"
	case FunctionVerificationFailed:
		return "FunctionVerificationFailed"
	case UndefinedShaderUnit:
		return "UndefinedShaderUnit"
	case InvalidArgType:
		return "InvalidArgType"
	case ArgumentWithoutInitialization:
		return "ArgumentWithoutInitialization"
	case InconsistentTSLGlobalType:
		return "InconsistentTSLGlobalType"
	case InvalidExposedParameter:
		return "InvalidExposedParameter"
	default:
		return "UnspecifiedError"
	}
}

// ShadingSystem is the process-wide owner of the host callback and the
// closure-type registry (spec §6.2 ShadingSystem::instance()). It is
// safe for concurrent use from any number of ShadingContexts.
type ShadingSystem struct {
	mu       sync.RWMutex
	callback HostCallback
	closures *closure.Registry
}

var (
	instanceOnce sync.Once
	instance     *ShadingSystem
)

// Instance returns the process singleton, constructing it on first use.
func Instance() *ShadingSystem {
	instanceOnce.Do(func() {
		instance = NewShadingSystem()
	})
	return instance
}

// NewShadingSystem builds an independent system, for tests that need
// isolation from the process singleton.
func NewShadingSystem() *ShadingSystem {
	return &ShadingSystem{closures: closure.NewRegistry()}
}

// RegisterCallback takes ownership of the host callback implementation
// (spec §6.2 ShadingSystem::register_callback).
func (s *ShadingSystem) RegisterCallback(cb HostCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

// Callback returns the currently registered host callback, or nil if
// none has been registered yet.
func (s *ShadingSystem) Callback() HostCallback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callback
}

// RegisterClosureType registers a named closure type, idempotent by
// name (spec §6.2 ShadingSystem::register_closure_type). size_bytes from
// the conceptual host API is derived from fields' declared types rather
// than accepted as a caller-supplied count, since package closure always
// lays fields out itself (see closure.Registry.Register) — unlike the
// original's by-hand LLVM struct, there is no way for the two to
// disagree.
func (s *ShadingSystem) RegisterClosureType(name string, fields []closure.Field) (int32, error) {
	desc, err := s.closures.Register(name, fields)
	if err != nil {
		return closure.IDInvalid, err
	}
	return desc.ID, nil
}

// Closures returns the process-wide closure registry, for wiring into
// compiler.Options and exec.Options when compiling and executing shaders
// registered against this system.
func (s *ShadingSystem) Closures() *closure.Registry { return s.closures }

// MakeShadingContext creates a new per-caller compilation context (spec
// §6.2 ShadingSystem::make_shading_context). Two contexts may compile
// concurrently; a single context must not be shared across goroutines
// (spec §5).
func (s *ShadingSystem) MakeShadingContext() *ShadingContext {
	return &ShadingContext{id: uuid.New(), system: s}
}

// globalLayoutKey identifies one field of a TSL-global layout for the
// cross-unit consistency check in group resolution (spec §4.8 step 3).
type globalLayoutKey struct {
	name string
	kind string
}

func layoutKeys(fields []compiler.GlobalLayoutField) []globalLayoutKey {
	keys := make([]globalLayoutKey, len(fields))
	for i, f := range fields {
		keys[i] = globalLayoutKey{name: f.Name, kind: f.Type.String()}
	}
	return keys
}

func layoutsEqual(a, b []compiler.GlobalLayoutField) bool {
	ka, kb := layoutKeys(a), layoutKeys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func layoutString(fields []compiler.GlobalLayoutField) string {
	s := ""
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s %s", f.Type, f.Name)
	}
	return s
}
