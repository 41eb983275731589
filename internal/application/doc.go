// Package application provides application initialization and dependency wiring.
// It resolves the variable manifest against a configvars engine, keeps the
// latest result as an immutable snapshot, reloads it when the local settings
// module changes and serves it through the HTTP API. The main package stays
// focused on CLI parsing and orchestration.
package application
