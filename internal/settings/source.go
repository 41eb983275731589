package settings

// Source looks up locally defined configuration values by key.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource serves values from an in-memory mapping.
type MapSource map[string]string

// Lookup returns the value stored under key.
func (m MapSource) Lookup(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// EmptySource never finds a value. It stands in for a local module that does
// not exist.
type EmptySource struct{}

// Lookup always misses.
func (EmptySource) Lookup(string) (string, bool) {
	return "", false
}
