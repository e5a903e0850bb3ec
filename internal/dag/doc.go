// Package dag holds the dependency graph between template blocks.
//
// Edges always point from an earlier block to a later one. Levels groups the
// nodes into layers where every node sits strictly after all of its
// dependencies; the scheduler turns those layers into execution phases.
package dag
