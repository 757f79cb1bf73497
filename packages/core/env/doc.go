// Package env holds the run-time context that expressions are evaluated
// against, and the evaluator itself.
//
// A Store keeps user variables, helper functions and the reserved slots
// "json" (the most recent decoded response) and "env" (process and .env
// variables). State bundles the Store with the live header set and base URL
// for one run. The Evaluator resolves ${...} templates and free-form
// expressions, backed by expr-lang.
package env
