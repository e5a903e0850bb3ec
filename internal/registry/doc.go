// Package registry provides the central "glue" for the tp module system.
//
// The Registry maps `tp.<module>.<name>` paths to the Go functions that
// implement them, together with the metadata the dependency analyzer relies
// on: whether a call is a barrier (it waits for a human) and whether it is
// pure. Modules register themselves at startup; the config file may then
// override metadata, and Validate checks the result before the first render.
//
// A Registry is read-only once rendering starts and may be shared by
// concurrent renders. Bind produces the per-render `tp` object for one
// services.TemplateContext.
package registry
