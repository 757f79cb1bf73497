// Package cascade applies settings blocks to the run state and maintains the
// inherited-settings table that carries a suite's settings to every suite
// depending on it, directly or transitively.
package cascade
