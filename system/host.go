package system

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tsl-lang/tsl/runtime"
)

// DefaultHostCallback is a ready-to-use runtime.HostCallback for tests
// and the tslc CLI demo: it logs diagnostics through
// charmbracelet/log (spec AMBIENT STACK logging), allocates closure
// memory from a mutex-guarded arena (spec §4.10 "must be thread-safe"),
// and samples textures from an in-memory lookup table rather than a real
// texture filtering pipeline, grounded on
// spaghettifunk-anima/engine/core/logging.go's singleton-logger
// construction.
type DefaultHostCallback struct {
	logger *log.Logger

	mu    sync.Mutex
	arena [][]byte

	texturesMu sync.RWMutex
	textures   map[interface{}]func(u, v float32) runtime.Float3
	alphas     map[interface{}]func(u, v float32) float32
}

// NewDefaultHostCallback builds a host callback that logs to stderr with
// a TSL-flavoured prefix.
func NewDefaultHostCallback() *DefaultHostCallback {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tsl",
	})
	return &DefaultHostCallback{
		logger:   logger,
		textures: make(map[interface{}]func(u, v float32) runtime.Float3),
		alphas:   make(map[interface{}]func(u, v float32) float32),
	}
}

// Allocate returns size fresh, zeroed bytes and keeps them reachable for
// the process lifetime — TSL never frees closure memory (spec §4.10).
func (h *DefaultHostCallback) Allocate(size uint32) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := make([]byte, size)
	h.arena = append(h.arena, buf)
	return buf
}

// CatchDebug logs a compile-time or run-time diagnostic at the matching
// level (spec §4.10, §7).
func (h *DefaultHostCallback) CatchDebug(level runtime.DebugLevel, message string) {
	switch level {
	case runtime.DebugError:
		h.logger.Error(message)
	case runtime.DebugWarning:
		h.logger.Warn(message)
	default:
		h.logger.Info(message)
	}
}

// RegisterTexture binds a handle to a sampling function, for tests and
// the CLI demo that need texture2d_sample to return something other than
// black.
func (h *DefaultHostCallback) RegisterTexture(handle interface{}, sample func(u, v float32) runtime.Float3, alpha func(u, v float32) float32) {
	h.texturesMu.Lock()
	defer h.texturesMu.Unlock()
	h.textures[handle] = sample
	h.alphas[handle] = alpha
}

// Sample2D services texture2d_sample<handle>(u, v) (spec §4.10 sample_2d).
func (h *DefaultHostCallback) Sample2D(handle interface{}, u, v float32) runtime.Float3 {
	h.texturesMu.RLock()
	defer h.texturesMu.RUnlock()
	if fn, ok := h.textures[handle]; ok && fn != nil {
		return fn(u, v)
	}
	return runtime.Float3{}
}

// SampleAlpha2D services texture2d_sample_alpha<handle>(u, v) (spec
// §4.10 sample_alpha_2d).
func (h *DefaultHostCallback) SampleAlpha2D(handle interface{}, u, v float32) float32 {
	h.texturesMu.RLock()
	defer h.texturesMu.RUnlock()
	if fn, ok := h.alphas[handle]; ok && fn != nil {
		return fn(u, v)
	}
	return 0
}

var _ runtime.HostCallback = (*DefaultHostCallback)(nil)
