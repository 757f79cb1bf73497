package runner

import (
	"fmt"

	"github.com/abdul-hamid-achik/yapi/packages/core/graph"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// Plan is the execution order of a set of suites.
type Plan struct {
	Graph *graph.Graph
	Order []*suite.Suite
}

// BuildPlan builds the dependency graph of suites, in the order given, and
// sorts it. Unresolvable dependencies and cycles are errors.
func BuildPlan(suites []*suite.Suite) (*Plan, error) {
	g := graph.New()
	byID := make(map[string]*suite.Suite, len(suites))
	for _, s := range suites {
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate suite %q", s.ID)
		}
		byID[s.ID] = s
		g.AddNode(s.ID)
	}

	exists := func(id string) bool {
		_, ok := byID[id]
		return ok
	}
	for _, s := range suites {
		for _, ref := range s.DependsOn {
			dep, ok := suite.ResolveDependency(s, ref, exists)
			if !ok {
				return nil, fmt.Errorf("%s: depends_on %q: %w", s.ID, ref, graph.ErrUnknownNode)
			}
			if err := g.AddEdge(dep, s.ID); err != nil {
				return nil, fmt.Errorf("%s: %w", s.ID, err)
			}
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	plan := &Plan{Graph: g, Order: make([]*suite.Suite, len(order))}
	for i, id := range order {
		plan.Order[i] = byID[id]
	}
	return plan, nil
}

// IDs returns the suite identifiers in execution order.
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Order))
	for i, s := range p.Order {
		ids[i] = s.ID
	}
	return ids
}
