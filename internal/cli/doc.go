// Package cli turns the burstmd command line into an app.Config. It owns
// flag parsing, input validation and the exit codes of usage errors.
package cli
