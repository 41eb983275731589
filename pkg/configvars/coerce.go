package configvars

import (
	"strconv"
	"strings"
)

var falseStrings = map[string]struct{}{
	"false":   {},
	"off":     {},
	"disable": {},
}

// AsList splits a string on separator ("," by default). A slice is returned
// unchanged and empty input yields an empty slice.
func AsList[T string | []string](value T, separator ...string) []string {
	sep := ","
	if len(separator) > 0 {
		sep = separator[0]
	}

	switch v := any(value).(type) {
	case []string:
		if len(v) == 0 {
			return []string{}
		}
		return v
	case string:
		if v == "" {
			return []string{}
		}
		return strings.Split(v, sep)
	}
	return []string{}
}

// AsBool interprets value as a boolean. Integers are true when non-zero;
// "false", "off" and "disable" (any case) are false; every other string,
// including "" and "maybe", is true. Only plain decimal integers with an
// optional sign count as numbers, so "0_0" or non-ASCII digits are true.
func AsBool[T string | bool](value T) bool {
	switch v := any(value).(type) {
	case bool:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n != 0
		}
		_, isFalse := falseStrings[strings.ToLower(v)]
		return !isFalse
	}
	return false
}
