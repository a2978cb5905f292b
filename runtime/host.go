package runtime

// DebugLevel classifies a diagnostic raised through HostCallback.CatchDebug
// (spec §4.10, §7).
type DebugLevel uint8

const (
	DebugInfo DebugLevel = iota
	DebugWarning
	DebugError
)

func (l DebugLevel) String() string {
	switch l {
	case DebugInfo:
		return "INFO"
	case DebugWarning:
		return "WARNING"
	case DebugError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// HostCallback is the renderer-supplied implementation every resolved
// shader invocation calls back into (spec §4.10). All four methods must
// tolerate concurrent invocation from many shading points at once.
//
// Resource handles (texture2d / shader_resource bindings) are opaque to
// TSL; the host hands one back at template-registration time and gets it
// back unchanged at sample time.
type HostCallback interface {
	// Allocate returns size fresh, zeroed bytes backing a closure node or
	// its parameter record (spec §4.7 TSL_MALLOC). The host owns the
	// memory's lifetime; TSL never frees it.
	Allocate(size uint32) []byte
	// CatchDebug receives a compile-time or run-time diagnostic.
	CatchDebug(level DebugLevel, message string)
	// Sample2D services texture2d_sample<handle>(u, v).
	Sample2D(handle interface{}, u, v float32) Float3
	// SampleAlpha2D services texture2d_sample_alpha<handle>(u, v).
	SampleAlpha2D(handle interface{}, u, v float32) float32
}
