package configvars

import (
	"go.uber.org/zap"

	"github.com/eugenenazirov/configvars/internal/settings"
)

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithLogger sets the logger. Secret values are never logged.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLookupEnv overrides the environment lookup, primarily for tests.
func WithLookupEnv(lookup func(string) (string, bool)) EngineOption {
	return func(e *Engine) {
		if lookup != nil {
			e.lookupEnv = lookup
		}
	}
}

// WithSettingsRoot sets the directory that dotted module paths are resolved against.
func WithSettingsRoot(dir string) EngineOption {
	return func(e *Engine) {
		e.loader = settings.NewLoader(dir)
	}
}

// WithObserver registers an observer for resolutions.
func WithObserver(observer Observer) EngineOption {
	return func(e *Engine) {
		e.observer = observer
	}
}

// InitOption configures a call to Initialize.
type InitOption func(*initOptions)

type initOptions struct {
	localModule string
	envPrefix   string
	source      LocalSource
}

// WithLocalModule names the local settings module explicitly. A missing
// explicit module is an error.
func WithLocalModule(modulePath string) InitOption {
	return func(o *initOptions) {
		o.localModule = modulePath
	}
}

// WithEnvPrefix prepends prefix to every environment lookup.
func WithEnvPrefix(prefix string) InitOption {
	return func(o *initOptions) {
		o.envPrefix = prefix
	}
}

// WithLocalSource uses src as the local settings source instead of loading a
// module.
func WithLocalSource(src LocalSource) InitOption {
	return func(o *initOptions) {
		o.source = src
	}
}

// Option configures a single Config or Secret call.
type Option func(*varOptions)

type varOptions struct {
	desc      string
	fileVar   string
	multiline bool
}

// WithDesc attaches a description for reports.
func WithDesc(desc string) Option {
	return func(o *varOptions) {
		o.desc = desc
	}
}

// WithFileVar names the variable holding the path of a secret file.
func WithFileVar(name string) Option {
	return func(o *varOptions) {
		o.fileVar = name
	}
}

// WithMultiline allows line breaks in a secret file.
func WithMultiline() Option {
	return func(o *varOptions) {
		o.multiline = true
	}
}

func applyOptions(opts []Option) varOptions {
	var o varOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
