package configvars

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// MaxSecretFileSize caps the size of a secret file.
const MaxSecretFileSize = 64 * 1024

// Secret resolves a secret either literally through key or from the file
// whose path is held by the WithFileVar variable. Both use environment >
// local module precedence, and exactly one of them may be defined; an empty
// string counts as defined. When neither is defined def is returned.
//
// The registry records MaskedValue for non-empty secrets under key, or under
// the file variable when key is empty. The returned value is never masked.
func (e *Engine) Secret(key, def string, opts ...Option) (string, error) {
	if err := e.ensureInitialized(); err != nil {
		return "", err
	}
	o := applyOptions(opts)

	if key == "" && o.fileVar == "" {
		return "", improperlyConfigured(ErrSecretNameMissing, "secret requires a variable name or a file variable")
	}

	var (
		literal       string
		literalSource Source
		literalSet    bool
		path          string
		pathSet       bool
	)
	if key != "" {
		literal, literalSource, literalSet = e.resolve(key)
	}
	if o.fileVar != "" {
		path, _, pathSet = e.resolve(o.fileVar)
	}

	var (
		value  string
		source Source
	)
	switch {
	case literalSet && pathSet:
		return "", improperlyConfigured(ErrSecretConflict,
			fmt.Sprintf("both %s and %s are set; define the secret only once", key, o.fileVar))
	case pathSet:
		content, err := readSecretFile(o.fileVar, path, o.multiline)
		if err != nil {
			return "", err
		}
		value, source = content, SourceFile
	case literalSet:
		value, source = literal, literalSource
	default:
		value, source = def, SourceDefault
	}

	name := key
	if name == "" {
		name = o.fileVar
	}
	display := value
	if value != "" {
		display = MaskedValue
	}

	e.register(ConfigVariable{
		Name:    name,
		Value:   display,
		Desc:    o.desc,
		Default: def,
		Secret:  true,
		Source:  source,
	})
	return value, nil
}

// readSecretFile reads the secret at path. An empty path clears the secret.
func readSecretFile(fileVar, path string, multiline bool) (string, error) {
	if path == "" {
		return "", nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", improperlyConfigured(ErrSecretFileNotFound,
				fmt.Sprintf("secret file %s referenced by %s does not exist", path, fileVar))
		}
		return "", &ConfigurationError{
			Msg: fmt.Sprintf("can't stat secret file %s referenced by %s: %v", path, fileVar, err),
			Err: err,
		}
	}
	if !info.Mode().IsRegular() {
		return "", improperlyConfigured(ErrSecretFileNotFound,
			fmt.Sprintf("secret file %s referenced by %s is not a regular file", path, fileVar))
	}
	if info.Size() > MaxSecretFileSize {
		return "", improperlyConfigured(ErrSecretFileTooLarge,
			fmt.Sprintf("secret file %s is %d bytes, the limit is %d", path, info.Size(), MaxSecretFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigurationError{
			Msg: fmt.Sprintf("can't read secret file %s: %v", path, err),
			Err: err,
		}
	}
	// the file may have grown since Stat
	if len(data) > MaxSecretFileSize {
		return "", improperlyConfigured(ErrSecretFileTooLarge,
			fmt.Sprintf("secret file %s is %d bytes, the limit is %d", path, len(data), MaxSecretFileSize))
	}

	content := string(data)
	if !multiline && strings.ContainsAny(content, "\r\n") {
		return "", improperlyConfigured(ErrMultilineSecret,
			fmt.Sprintf("secret file %s referenced by %s contains a line break; is it the right file?", path, fileVar))
	}
	return content, nil
}
