// Package hcl provides the HCL implementation of config.Loader. It parses
// .hcl files with hclparse, decodes their blocks with gohcl and converts cty
// values of the globals block into plain Go data.
//
// # Blocks
//
//	engine   { workers = 8  sequential = false  timeout = "30s"  max_call_depth = 200 }
//	handler "system" "prompt" { barrier = true  pure = false }
//	globals  { author = "Jane"  tags = ["a", "b"] }
//	prompts  { answers = { "Enter name" = "TestUser" }  suggest_first = true }
//	http     { timeout = "10s" }
//	prompt_server { url = "http://localhost:3000"  namespace = "/"  answer_timeout = "5m" }
package hcl
