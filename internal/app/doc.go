// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// # Lifecycle
//
// NewApp builds the logger, loads the optional config file, registers the
// tp modules and validates the registry; configuration mistakes panic there.
// Run then renders a file or a directory, or serves renders over HTTP.
package app
