// Package output renders runs for people and machines.
//
// Supported formats:
//   - console: colored, line-per-event log of the run with a summary
//   - json: one JSON document written when the run finishes
//
// Both implement runner.Reporter. PlanTable renders an execution plan as a
// table for the list command.
package output
