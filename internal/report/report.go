package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/configvars/pkg/configvars"
)

// Mode selects which variables a report shows and which value it prints.
type Mode string

const (
	// ModeAll prints every variable with its resolved value.
	ModeAll Mode = "all"
	// ModeChanged skips variables whose value equals their default.
	ModeChanged Mode = "changed"
	// ModeDefaults prints every variable with its default instead of its value.
	ModeDefaults Mode = "defaults"
)

// ErrUnknownMode is returned by ParseMode for unsupported modes.
var ErrUnknownMode = errors.New("unknown report mode")

// ParseMode parses a mode name. An empty name means ModeAll.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeChanged, ModeDefaults:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, raw)
	}
}

// Options control Format.
type Options struct {
	Mode    Mode
	Comment bool
}

// Select applies mode to vars. The input slice is not modified.
func Select(vars []configvars.ConfigVariable, mode Mode) []configvars.ConfigVariable {
	out := make([]configvars.ConfigVariable, 0, len(vars))
	for _, v := range vars {
		switch mode {
		case ModeChanged:
			if v.Value == v.Default {
				continue
			}
		case ModeDefaults:
			v.Value = v.Default
		}
		out = append(out, v)
	}
	return out
}

// Format writes one `NAME = "value"` line per variable, followed by
// `  # desc` when comments are enabled and a description exists.
func Format(w io.Writer, vars []configvars.ConfigVariable, opts Options) error {
	for _, v := range Select(vars, opts.Mode) {
		line := v.Name + " = " + strconv.Quote(v.Value)
		if opts.Comment && v.Desc != "" {
			line += "  # " + v.Desc
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// FormatYAML writes the selected variables as a YAML list.
func FormatYAML(w io.Writer, vars []configvars.ConfigVariable, mode Mode) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Select(vars, mode)); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}
