// Package graph orders suites by their declared dependencies.
//
// Nodes are suite identities and an edge A -> B means B depends on A, so A
// runs, and cascades its settings, before B. TopologicalSort breaks ties
// between independent nodes by insertion order so runs are deterministic,
// and fails with ErrCyclicDependency instead of truncating its output.
package graph
