package configvars

import (
	"errors"

	"github.com/eugenenazirov/configvars/internal/settings"
)

// ErrImproperlyConfigured matches every *ConfigurationError through errors.Is.
var ErrImproperlyConfigured = errors.New("improperly configured")

var (
	// ErrSettingsModuleUnset is returned when no local module is given and
	// SETTINGS_MODULE is not set.
	ErrSettingsModuleUnset = errors.New("base settings module is not set")
	// ErrInvalidModulePath is returned for module paths that are not dotted identifiers.
	ErrInvalidModulePath = settings.ErrInvalidModulePath
	// ErrLocalModuleNotFound is returned when an explicitly named local module does not exist.
	ErrLocalModuleNotFound = settings.ErrModuleNotFound
	// ErrSecretNameMissing is returned when a secret has neither a name nor a file variable.
	ErrSecretNameMissing = errors.New("secret requires a variable name or a file variable")
	// ErrSecretConflict is returned when both the literal and the file channel are set.
	ErrSecretConflict = errors.New("secret is set both literally and through a file")
	// ErrSecretFileNotFound is returned when the secret file does not exist or is not a regular file.
	ErrSecretFileNotFound = errors.New("secret file not found")
	// ErrSecretFileTooLarge is returned when the secret file exceeds MaxSecretFileSize.
	ErrSecretFileTooLarge = errors.New("secret file too large")
	// ErrMultilineSecret is returned when a single-line secret file contains a line break.
	ErrMultilineSecret = errors.New("secret file contains a line break")
)

// ConfigurationError reports a configuration mistake. It is never transient
// and callers should not retry.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigurationError match ErrImproperlyConfigured.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrImproperlyConfigured
}

func improperlyConfigured(kind error, msg string) error {
	return &ConfigurationError{Msg: msg, Err: kind}
}
