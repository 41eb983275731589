// Package settings loads local settings modules. A dotted module path such as
// "project.local" names a file below a root directory ("project/local.yaml",
// ".yml" or ".toml"), and the loaded file serves plain key/value lookups to the
// resolution engine.
package settings
