// Package resultstore provides an ephemeral, thread-safe, in-memory record of
// block execution results for one render.
//
// # Purpose
//
// Phase workers write the status, output text, error and duration of every
// block they run. The renderer reads them back after each phase to assemble
// the document and to find the committed prefix when a render stops early.
//
// # Concurrency Model
//
// The store uses sync.Map because every block's entry is written by exactly
// one worker and keys never collide:
//   - **Independent Keys:** one entry per block ID
//   - **Write-Heavy Phases:** workers record results while siblings are running
//   - **Read After Barrier:** the renderer reads only after a phase completes
//
// A store is created fresh for each render and discarded afterwards.
package resultstore
