// Package suite defines the in-memory records for yapi test suites and reads
// them from disk.
//
// A suite is one YAML file describing:
//   - Dependencies on other suites (depends_on)
//   - Settings cascaded to dependents (root, vars, headers)
//   - Four ordered phases of steps: beforeAll, steps, afterAll, cleanup
//
// Suites are identified by their slash-separated path relative to the run
// root. Discover walks a directory tree and returns suites in discovery
// order, which the dependency graph uses to break ordering ties.
package suite
