package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/configvars/pkg/configvars"
)

// ErrInvalidManifest is returned when a manifest fails validation.
var ErrInvalidManifest = errors.New("invalid manifest")

var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Declaration declares one variable to resolve.
type Declaration struct {
	Name      string `yaml:"name" validate:"omitempty,varname"`
	Default   string `yaml:"default"`
	Desc      string `yaml:"desc" validate:"max=512"`
	Secret    bool   `yaml:"secret"`
	FileVar   string `yaml:"file_var" validate:"omitempty,varname"`
	Multiline bool   `yaml:"multiline"`
}

// Manifest is an ordered list of declarations.
type Manifest struct {
	Variables []Declaration `yaml:"variables" validate:"dive"`
}

// Resolver is the part of *configvars.Engine a manifest needs.
type Resolver interface {
	Config(key, def string, opts ...configvars.Option) (string, error)
	Secret(key, def string, opts ...configvars.Option) (string, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
		return variableNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks field formats and the rules tying secret fields together.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	for i, d := range m.Variables {
		switch {
		case !d.Secret && d.Name == "":
			return fmt.Errorf("%w: variables[%d]: name is required", ErrInvalidManifest, i)
		case d.Secret && d.Name == "" && d.FileVar == "":
			return fmt.Errorf("%w: variables[%d]: secret needs name or file_var", ErrInvalidManifest, i)
		case !d.Secret && d.FileVar != "":
			return fmt.Errorf("%w: variables[%d] (%s): file_var requires secret: true", ErrInvalidManifest, i, d.Name)
		case !d.Secret && d.Multiline:
			return fmt.Errorf("%w: variables[%d] (%s): multiline requires secret: true", ErrInvalidManifest, i, d.Name)
		}
	}
	return nil
}

// Resolve resolves every declaration in order and stops at the first error.
func (m *Manifest) Resolve(r Resolver) error {
	for _, d := range m.Variables {
		if err := d.resolve(r); err != nil {
			return fmt.Errorf("resolve %s: %w", d.label(), err)
		}
	}
	return nil
}

func (d Declaration) resolve(r Resolver) error {
	opts := []configvars.Option{configvars.WithDesc(d.Desc)}
	if !d.Secret {
		_, err := r.Config(d.Name, d.Default, opts...)
		return err
	}

	if d.FileVar != "" {
		opts = append(opts, configvars.WithFileVar(d.FileVar))
	}
	if d.Multiline {
		opts = append(opts, configvars.WithMultiline())
	}
	_, err := r.Secret(d.Name, d.Default, opts...)
	return err
}

func (d Declaration) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.FileVar
}
