package configvars

// MaskedValue replaces non-empty secret values in the registry.
const MaskedValue = "*****"

// Source tells where a resolved value came from.
type Source string

// Value sources, in precedence order.
const (
	SourceEnv     Source = "env"
	SourceLocal   Source = "local"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// ConfigVariable describes one resolved key for reporting.
//
// Value is what reports show: secrets carry MaskedValue unless they resolved
// to the empty string. Default is always the caller's fallback, unmasked.
type ConfigVariable struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Desc    string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Default string `json:"default" yaml:"default"`
	Secret  bool   `json:"secret" yaml:"secret"`
	Source  Source `json:"source" yaml:"source"`
}

// Resolution is passed to an Observer after every registration.
type Resolution struct {
	Name   string
	Source Source
	Secret bool
}

// Observer is notified of every registered resolution.
type Observer interface {
	ObserveResolution(Resolution)
}
