package env

import (
	"github.com/abdul-hamid-achik/yapi/packages/builtin"
)

// State is everything a run mutates: the context store, the live header set
// and the live base URL. It is owned by the orchestrator and passed by
// reference to the cascade and the step executor.
type State struct {
	Context *Store
	Headers map[string]any
	BaseURL string
}

// NewState creates a State whose context is seeded with the builtin helpers,
// extra functions, and the given environment variables under EnvKey.
func NewState(extra map[string]any, envVars map[string]string) *State {
	funcs := builtin.NewRegistry().Funcs()
	for k, v := range extra {
		funcs[k] = v
	}
	store := NewStore(funcs)

	ns := make(map[string]any, len(envVars))
	for k, v := range envVars {
		ns[k] = v
	}
	store.Set(EnvKey, ns)
	store.Set(LastResponseKey, map[string]any{})

	return &State{
		Context: store,
		Headers: make(map[string]any),
	}
}

// MergeHeaders shallow merges headers into the live header set.
func (s *State) MergeHeaders(headers map[string]any) {
	for k, v := range headers {
		s.Headers[k] = v
	}
}

// HeaderValues renders the live headers as strings for the transport.
func (s *State) HeaderValues() map[string]string {
	out := make(map[string]string, len(s.Headers))
	for k, v := range s.Headers {
		out[k] = Stringify(v)
	}
	return out
}
