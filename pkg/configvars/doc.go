// Package configvars resolves configuration values from three layers with
// fixed precedence: environment variables (optionally prefixed), a local
// settings module, and the caller's default. Every resolved key is recorded in
// a registry that reports can iterate.
//
// # Resolution
//
//	engine := configvars.New()
//	if err := engine.Initialize(configvars.WithEnvPrefix("APP_")); err != nil {
//	    log.Fatal(err)
//	}
//	debug, _ := engine.Config("DEBUG", "false", configvars.WithDesc("verbose errors"))
//	if configvars.AsBool(debug) { ... }
//
// Without WithLocalModule the local module is derived from SETTINGS_MODULE:
// "project.settings" becomes "project.local", which is loaded from
// "project/local.yaml" (or ".yml", ".toml") below the settings root. A missing
// derived module is not an error; ImportFailed reports it so a start-up check
// can warn about it.
//
// # Secrets
//
// Secret reads a value literally or from a file:
//
//	key, err := engine.Secret("API_KEY", "", configvars.WithFileVar("API_KEY_FILE"))
//
// Only one of API_KEY and API_KEY_FILE may be set. Files are limited to
// MaxSecretFileSize and must be a single line unless WithMultiline is given.
// The registry shows MaskedValue in place of non-empty secrets.
//
// # Process-wide engine
//
// The package-level functions delegate to Default(). Tests should call
// ResetDefault between cases.
package configvars
