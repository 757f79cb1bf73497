package env

import (
	"fmt"

	"github.com/expr-lang/expr/builtin"
)

const (
	// LastResponseKey holds the decoded body of the most recent response.
	LastResponseKey = "json"
	// EnvKey holds process environment and .env variables.
	EnvKey = "env"
)

// Store is the mutable name to value mapping of a run. It is not safe for
// concurrent use; a run executes strictly sequentially.
type Store struct {
	vars  map[string]any
	funcs map[string]any
}

// NewStore creates a store seeded with the given helper functions. Names that
// collide with expression language builtins are skipped. The helpers set and
// getVar are always registered and operate on the store itself.
func NewStore(funcs map[string]any) *Store {
	s := &Store{
		vars:  make(map[string]any),
		funcs: make(map[string]any, len(funcs)+2),
	}
	for name, fn := range funcs {
		if _, reserved := builtin.Index[name]; reserved {
			continue
		}
		s.funcs[name] = fn
	}
	s.funcs["set"] = func(name string, value any) any {
		s.vars[name] = value
		return value
	}
	s.funcs["getVar"] = func(name string) any {
		return s.vars[name]
	}
	return s
}

func (s *Store) Get(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *Store) Set(name string, value any) {
	s.vars[name] = value
}

// Merge performs a shallow union of vars into the store, new keys win.
func (s *Store) Merge(vars map[string]any) {
	for k, v := range vars {
		s.vars[k] = v
	}
}

// Env builds the environment an expression is compiled and run against.
// Variables shadow helper functions of the same name.
func (s *Store) Env() map[string]any {
	out := make(map[string]any, len(s.funcs)+len(s.vars))
	for k, v := range s.funcs {
		out[k] = v
	}
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

func (s *Store) String() string {
	return fmt.Sprintf("Store(%d vars, %d funcs)", len(s.vars), len(s.funcs))
}
