package runner

import (
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// Reporter receives run events as they happen.
type Reporter interface {
	RunStarted(order []string)
	SuiteStarted(s *suite.Suite)
	PhaseStarted(s *suite.Suite, phase suite.Phase)
	RequestSent(s *suite.Suite, step *suite.Step, req *http.Request)
	Logged(s *suite.Suite, step *suite.Step, line string)
	StepFailed(s *suite.Suite, result *StepResult)
	SuiteFinished(s *suite.Suite, result *SuiteResult)
	CleanupFinished(s *suite.Suite, result *SuiteResult)
	RunFinished(result *RunResult)
}

// NopReporter ignores every event.
type NopReporter struct{}

func (NopReporter) RunStarted([]string)                                 {}
func (NopReporter) SuiteStarted(*suite.Suite)                           {}
func (NopReporter) PhaseStarted(*suite.Suite, suite.Phase)              {}
func (NopReporter) RequestSent(*suite.Suite, *suite.Step, *http.Request) {}
func (NopReporter) Logged(*suite.Suite, *suite.Step, string)            {}
func (NopReporter) StepFailed(*suite.Suite, *StepResult)                {}
func (NopReporter) SuiteFinished(*suite.Suite, *SuiteResult)            {}
func (NopReporter) CleanupFinished(*suite.Suite, *SuiteResult)          {}
func (NopReporter) RunFinished(*RunResult)                              {}
