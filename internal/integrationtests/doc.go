// Package integrationtests exercises the renderer end to end: real tp
// modules, in-memory host services and timing-sensitive concurrency checks.
package integrationtests
