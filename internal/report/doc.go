// Package report renders the variable registry for humans and runs the
// start-up check for a missing local settings module.
package report
