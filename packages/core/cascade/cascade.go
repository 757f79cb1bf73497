package cascade

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/yapi/packages/core/env"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// Topology reports the transitive dependents of a suite.
type Topology interface {
	Descendants(id string) []string
}

// Cascade merges settings into a run State.
type Cascade struct {
	state     *env.State
	eval      *env.Evaluator
	topology  Topology
	inherited map[string]*suite.Settings
	logger    zerolog.Logger
}

// Option configures a Cascade.
type Option func(*Cascade)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cascade) {
		c.logger = logger
	}
}

func New(state *env.State, eval *env.Evaluator, topology Topology, opts ...Option) *Cascade {
	c := &Cascade{
		state:     state,
		eval:      eval,
		topology:  topology,
		inherited: make(map[string]*suite.Settings),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply evaluates s and merges it into the state: vars into the context,
// headers into the live header set, and root replacing the base URL. It
// returns the evaluated settings, or nil when s is empty.
//
// Every var of the block is evaluated against the context as it was before
// the block, then the whole block is merged at once. Siblings never see each
// other; headers do see the merged vars.
func (c *Cascade) Apply(s *suite.Settings) (*suite.Settings, error) {
	if s.IsZero() {
		return nil, nil
	}
	out := &suite.Settings{Root: s.Root}

	if len(s.Vars) > 0 {
		out.Vars = make(map[string]any, len(s.Vars))
		for _, k := range sortedKeys(s.Vars) {
			v, err := c.eval.Convert(s.Vars[k])
			if err != nil {
				return nil, fmt.Errorf("vars.%s: %w", k, err)
			}
			out.Vars[k] = v
		}
		c.state.Context.Merge(out.Vars)
	}

	if len(s.Headers) > 0 {
		headers, err := c.eval.ConvertMap(s.Headers)
		if err != nil {
			return nil, fmt.Errorf("headers.%w", err)
		}
		out.Headers = headers
		c.state.MergeHeaders(headers)
	}

	if s.Root != "" {
		c.state.BaseURL = s.Root
	}
	return out, nil
}

// Restore merges already evaluated settings into the state without
// evaluating them again.
func (c *Cascade) Restore(s *suite.Settings) {
	if s.IsZero() {
		return
	}
	c.state.Context.Merge(s.Vars)
	c.state.MergeHeaders(s.Headers)
	if s.Root != "" {
		c.state.BaseURL = s.Root
	}
}

// Inherited returns the accumulated ancestor settings of id, or nil.
func (c *Cascade) Inherited(id string) *suite.Settings {
	return c.inherited[id]
}

// Propagate merges evaluated settings of fromID into the inherited entry of
// every descendant. Vars and headers are merged with the new values winning;
// the root is only set on entries that have none.
func (c *Cascade) Propagate(fromID string, s *suite.Settings) {
	if s.IsZero() {
		return
	}
	for _, id := range c.topology.Descendants(fromID) {
		entry, ok := c.inherited[id]
		if !ok {
			entry = &suite.Settings{}
			c.inherited[id] = entry
		}
		entry.Vars = mergeInto(entry.Vars, s.Vars)
		entry.Headers = mergeInto(entry.Headers, s.Headers)
		if entry.Root == "" {
			entry.Root = s.Root
		}
		c.logger.Debug().Str("from", fromID).Str("to", id).Msg("propagated settings")
	}
}

func mergeInto(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
