// Package runner executes a set of parsed suites.
//
// It provides:
//   - Planning: the dependency graph and topological order of the suites
//   - The forward pass: settings cascade, then beforeAll, steps and afterAll
//     of each suite, stopping at the first failing suite
//   - The reverse pass: cleanup of every suite in reverse order, whatever
//     happened during the forward pass
//   - The step executor: request, response capture, eval, log and assertions
//
// Execution is strictly sequential. A run owns one env.State that every
// suite and step reads and writes.
package runner
