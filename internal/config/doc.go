// Package config defines the format-agnostic configuration model of the
// renderer, along with the Loader interface that fills it from a
// configuration source.
//
// The `config.Model` only holds values the user wrote; zero values and nil
// pointers mean "not set", so that callers can layer CLI flags and defaults
// on top of it. Concrete loaders, such as for HCL, live in separate packages.
package config
