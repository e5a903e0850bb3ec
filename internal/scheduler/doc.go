// Package scheduler turns the blocks of a template into an execution plan.
//
// # How It Works
//
// Every block is analyzed once, in source order. A block depends on an
// earlier block when it reads what the earlier block writes, writes what it
// reads or writes, both write the output accumulator, or either one is a
// barrier. The dependencies form a DAG whose levels become phases:
//
//  1. A block joins the phase right after the latest phase of any block it
//     depends on.
//  2. A barrier block gets a phase of its own, and every later block is
//     scheduled after it.
//  3. Blocks that share a phase are independent and may run concurrently.
//
// # Relationship with Other Components
//
//   - **analysis:** produces the per-block read/write summaries
//   - **dag:** holds the dependency edges and computes the levels
//   - **executor:** runs the phases of a plan in order
package scheduler
