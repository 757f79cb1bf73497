package runner

import (
	"fmt"

	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// StepError locates a failure within a suite.
type StepError struct {
	Suite string
	Phase suite.Phase
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	loc := fmt.Sprintf("%s %s[%d]", e.Suite, e.Phase, e.Index)
	if e.Name != "" {
		loc += " (" + e.Name + ")"
	}
	return loc + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }
