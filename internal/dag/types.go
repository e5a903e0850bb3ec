package dag

import "sync"

// Graph is a dependency graph over block IDs. Because IDs follow source
// order, every edge points from a lower ID to a higher one. Methods are safe
// for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	nodes map[int]*node
}

// node is one block. Callers only ever see its ID.
type node struct {
	id int
	// deps are the blocks this one waits for.
	deps map[int]*node
	// dependents are the blocks waiting for this one.
	dependents map[int]*node
	// barrier nodes occupy a level of their own.
	barrier bool
}
