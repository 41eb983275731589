package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultLocalModuleName replaces the last segment of the base settings module
// when the local module is derived rather than given.
const DefaultLocalModuleName = "local"

var (
	// ErrInvalidModulePath is returned for module paths that are not dotted identifiers.
	ErrInvalidModulePath = errors.New("settings module must be a string containing a dotted module path")
	// ErrModuleNotFound is returned when no file backs the module path.
	ErrModuleNotFound = errors.New("settings module not found")
	// ErrUnsupportedValue is returned for nested mappings and other non-scalar values.
	ErrUnsupportedValue = errors.New("only scalar values and lists of scalars are supported")
)

// Extensions lists the file extensions tried for a module, in order.
var Extensions = []string{".yaml", ".yml", ".toml"}

var modulePathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidModulePath reports whether path is a dotted identifier path.
func ValidModulePath(path string) bool {
	return modulePathPattern.MatchString(path)
}

// LocalModulePath swaps the last segment of base for DefaultLocalModuleName.
func LocalModulePath(base string) string {
	parts := strings.Split(base, ".")
	parts[len(parts)-1] = DefaultLocalModuleName
	return strings.Join(parts, ".")
}

// ModuleFile converts a dotted module path to a relative file path without
// extension.
func ModuleFile(modulePath string) string {
	return filepath.Join(strings.Split(modulePath, ".")...)
}

// Loader resolves module paths to files below Root. An empty Root means the
// working directory.
type Loader struct {
	Root string
}

// NewLoader creates a Loader rooted at root.
func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

// Locate returns the file backing modulePath.
func (l *Loader) Locate(modulePath string) (string, error) {
	if !ValidModulePath(modulePath) {
		return "", fmt.Errorf("%w: %q", ErrInvalidModulePath, modulePath)
	}

	base := filepath.Join(l.Root, ModuleFile(modulePath))
	for _, ext := range Extensions {
		candidate := base + ext
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s: %w", ErrModuleNotFound, modulePath, fs.ErrNotExist)
}

// Load locates and parses the module into a MapSource.
func (l *Loader) Load(modulePath string) (Source, error) {
	path, err := l.Locate(modulePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var src MapSource
	switch filepath.Ext(path) {
	case ".toml":
		src, err = parseTOML(data)
	default:
		src, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return src, nil
}

func parseYAML(data []byte) (MapSource, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return MapSource{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse YAML: top level must be a mapping")
	}

	out := make(MapSource, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value, ok, err := yamlValue(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if ok {
			out[key] = value
		}
	}
	return out, nil
}

// yamlValue flattens a node to its literal text. Null means undefined.
func yamlValue(node *yaml.Node) (string, bool, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return "", false, nil
		}
		return node.Value, true, nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.SequenceNode {
				return "", false, ErrUnsupportedValue
			}
			value, ok, err := yamlValue(item)
			if err != nil {
				return "", false, err
			}
			if ok {
				items = append(items, value)
			}
		}
		return strings.Join(items, ","), true, nil
	default:
		return "", false, ErrUnsupportedValue
	}
}

func parseTOML(data []byte) (MapSource, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	out := make(MapSource, len(raw))
	for key, v := range raw {
		value, err := tomlValue(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func tomlValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		// toml.LocalDate, toml.LocalTime and toml.LocalDateTime
		return t.String(), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if _, nested := item.([]any); nested {
				return "", ErrUnsupportedValue
			}
			value, err := tomlValue(item)
			if err != nil {
				return "", err
			}
			items = append(items, value)
		}
		return strings.Join(items, ","), nil
	default:
		return "", ErrUnsupportedValue
	}
}
