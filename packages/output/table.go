package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/abdul-hamid-achik/yapi/packages/core/runner"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// PlanTable writes the execution order of plan with each suite's
// dependencies and step counts.
func PlanTable(w io.Writer, plan *runner.Plan, noColor bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if !noColor {
		t.Style().Color.Header = text.Colors{text.Bold}
	}

	t.AppendHeader(table.Row{"#", "Suite", "Depends On", "Needed By", "Setup", "Steps", "Teardown", "Cleanup"})
	for i, s := range plan.Order {
		t.AppendRow(table.Row{
			i + 1,
			s.ID,
			joinOrDash(plan.Graph.Dependencies(s.ID)),
			joinOrDash(plan.Graph.Dependents(s.ID)),
			len(s.Phase(suite.PhaseSetup)),
			len(s.Phase(suite.PhaseMain)),
			len(s.Phase(suite.PhaseTeardown)),
			len(s.Phase(suite.PhaseCleanup)),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d suites", len(plan.Order))})
	t.Render()
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
