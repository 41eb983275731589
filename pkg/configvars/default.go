package configvars

import "sync"

var (
	defaultEngine = New()
	defaultMu     sync.RWMutex
)

// Default returns the process-wide engine.
func Default() *Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// ResetDefault replaces the process-wide engine with a fresh one built from
// opts. Tests call it between cases instead of clearing engine state.
func ResetDefault(opts ...EngineOption) *Engine {
	e := New(opts...)
	defaultMu.Lock()
	defaultEngine = e
	defaultMu.Unlock()
	return e
}

// Initialize initializes the process-wide engine.
func Initialize(opts ...InitOption) error {
	return Default().Initialize(opts...)
}

// Config resolves key on the process-wide engine.
func Config(key, def string, opts ...Option) (string, error) {
	return Default().Config(key, def, opts...)
}

// Secret resolves a secret on the process-wide engine.
func Secret(key, def string, opts ...Option) (string, error) {
	return Default().Secret(key, def, opts...)
}

// Local looks key up in the process-wide engine's local module.
func Local(key, def string) (string, error) {
	return Default().Local(key, def)
}

// Env looks key up in the environment using the process-wide engine's prefix.
func Env(key, def string) (string, error) {
	return Default().Env(key, def)
}

// Variables returns the process-wide registry.
func Variables() []ConfigVariable {
	return Default().Variables()
}

// ImportFailed reports a missing derived local module on the process-wide engine.
func ImportFailed() (string, bool) {
	return Default().ImportFailed()
}

// MustConfig is like Config but panics on error. It suits package-level
// settings that must resolve at start-up.
func MustConfig(key, def string, opts ...Option) string {
	value, err := Config(key, def, opts...)
	if err != nil {
		panic(err)
	}
	return value
}

// MustSecret is like Secret but panics on error.
func MustSecret(key, def string, opts ...Option) string {
	value, err := Secret(key, def, opts...)
	if err != nil {
		panic(err)
	}
	return value
}
