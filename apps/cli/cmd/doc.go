// Package cmd implements the yapi CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the suites under a directory in dependency order
//   - validate: Check suite files and the dependency graph without executing
//   - list: Display the execution order as a table
//   - init: Create an example project
//   - import: Convert curl commands into a suite
//   - docs: Print the suite file reference
//   - version: Show yapi version information
package cmd
