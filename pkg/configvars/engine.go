package configvars

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/eugenenazirov/configvars/internal/settings"
)

// SettingsModuleEnv names the environment variable holding the base settings
// module. The local module is derived from it when none is given.
const SettingsModuleEnv = "SETTINGS_MODULE"

// LocalSource supplies locally defined values.
type LocalSource = settings.Source

// MapSource is a LocalSource backed by a map.
type MapSource = settings.MapSource

type state int

const (
	stateUninitialized state = iota
	stateInitialized
)

// Engine resolves configuration values from the environment, a local settings
// module and caller defaults, in that order, and records every resolved key.
//
// An Engine is not safe for concurrent use. Callers that may run Initialize
// while other goroutines resolve values must synchronize themselves.
type Engine struct {
	logger    *zap.Logger
	lookupEnv func(string) (string, bool)
	loader    *settings.Loader
	observer  Observer

	state        state
	localModule  string
	envPrefix    string
	local        LocalSource
	importFailed string
	registry     *Registry
}

// New creates an uninitialized Engine. The first resolution initializes it
// with default parameters unless Initialize was called before.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:    zap.NewNop(),
		lookupEnv: os.LookupEnv,
		loader:    settings.NewLoader(""),
		local:     settings.EmptySource{},
		registry:  NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize resets the registry and loads the local settings module.
//
// The module given by WithLocalModule must exist. Without it the module is
// derived from SETTINGS_MODULE by replacing its last segment with "local";
// a missing derived module is tolerated and reported by ImportFailed.
func (e *Engine) Initialize(opts ...InitOption) error {
	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.state = stateUninitialized
	e.registry = NewRegistry()
	e.local = settings.EmptySource{}
	e.importFailed = ""
	e.localModule = ""
	e.envPrefix = o.envPrefix

	if o.source != nil {
		e.local = o.source
		e.localModule = o.localModule
		e.state = stateInitialized
		return nil
	}

	explicit := o.localModule != ""
	modulePath := o.localModule
	if !explicit {
		base, ok := e.lookupEnv(SettingsModuleEnv)
		if !ok || base == "" {
			return improperlyConfigured(ErrSettingsModuleUnset,
				fmt.Sprintf("%s is not set and no local settings module was given", SettingsModuleEnv))
		}
		modulePath = settings.LocalModulePath(base)
	}
	e.localModule = modulePath

	src, err := e.loader.Load(modulePath)
	switch {
	case err == nil:
		e.local = src
	case !explicit && (errors.Is(err, settings.ErrModuleNotFound) || errors.Is(err, settings.ErrInvalidModulePath)):
		// a derived module that cannot be imported is tolerated
		e.importFailed = modulePath
		e.logger.Warn("local settings module not found", zap.String("module", modulePath), zap.Error(err))
	case errors.Is(err, settings.ErrInvalidModulePath):
		return &ConfigurationError{
			Msg: fmt.Sprintf("ensure that the local settings module %q is a string containing a dotted module path", modulePath),
			Err: err,
		}
	case errors.Is(err, settings.ErrModuleNotFound):
		return &ConfigurationError{
			Msg: fmt.Sprintf("can't import local settings module %s", modulePath),
			Err: err,
		}
	default:
		return &ConfigurationError{
			Msg: fmt.Sprintf("can't load local settings module %s: %v", modulePath, err),
			Err: err,
		}
	}

	e.state = stateInitialized
	e.logger.Debug("configuration initialized",
		zap.String("local_module", e.localModule),
		zap.String("env_prefix", e.envPrefix),
	)
	return nil
}

func (e *Engine) ensureInitialized() error {
	if e.state == stateInitialized {
		return nil
	}
	return e.Initialize()
}

// Local returns the local settings value for key, or def.
func (e *Engine) Local(key, def string) (string, error) {
	if err := e.ensureInitialized(); err != nil {
		return "", err
	}
	if value, ok := e.local.Lookup(key); ok {
		return value, nil
	}
	return def, nil
}

// Env returns the prefixed environment value for key, or def.
func (e *Engine) Env(key, def string) (string, error) {
	if err := e.ensureInitialized(); err != nil {
		return "", err
	}
	if value, ok := e.lookupEnv(e.envPrefix + key); ok {
		return value, nil
	}
	return def, nil
}

// Config resolves key with environment > local module > def precedence and
// registers it. An environment variable set to "" still wins.
func (e *Engine) Config(key, def string, opts ...Option) (string, error) {
	if err := e.ensureInitialized(); err != nil {
		return "", err
	}
	o := applyOptions(opts)

	value, source, ok := e.resolve(key)
	if !ok {
		value = def
	}

	e.register(ConfigVariable{
		Name:    key,
		Value:   value,
		Desc:    o.desc,
		Default: def,
		Source:  source,
	})
	return value, nil
}

// resolve applies environment > local precedence. ok is false when neither
// defines key.
func (e *Engine) resolve(key string) (string, Source, bool) {
	if value, ok := e.lookupEnv(e.envPrefix + key); ok {
		return value, SourceEnv, true
	}
	if value, ok := e.local.Lookup(key); ok {
		return value, SourceLocal, true
	}
	return "", SourceDefault, false
}

func (e *Engine) register(v ConfigVariable) {
	e.registry.Register(v)
	e.logger.Debug("configuration variable resolved",
		zap.String("name", v.Name),
		zap.String("source", string(v.Source)),
		zap.Bool("secret", v.Secret),
	)
	if e.observer != nil {
		e.observer.ObserveResolution(Resolution{Name: v.Name, Source: v.Source, Secret: v.Secret})
	}
}

// Variables returns the registered variables in registration order.
func (e *Engine) Variables() []ConfigVariable {
	return e.registry.Variables()
}

// ImportFailed returns the derived local module path when it could not be
// found during the last Initialize.
func (e *Engine) ImportFailed() (string, bool) {
	return e.importFailed, e.importFailed != ""
}

// LocalModule returns the local settings module path in use.
func (e *Engine) LocalModule() string {
	return e.localModule
}

// EnvPrefix returns the environment variable prefix in use.
func (e *Engine) EnvPrefix() string {
	return e.envPrefix
}

// Initialized reports whether the engine has been initialized.
func (e *Engine) Initialized() bool {
	return e.state == stateInitialized
}

// SettingsRoot returns the directory module paths are resolved against.
func (e *Engine) SettingsRoot() string {
	return e.loader.Root
}
