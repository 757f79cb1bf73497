package runner

import (
	"time"

	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// Status is the outcome of a suite in the forward pass.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records one executed step.
type StepResult struct {
	Phase      suite.Phase
	Index      int
	Name       string
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Curl       string
	Err        error
}

func (r *StepResult) Passed() bool {
	return r.Err == nil
}

// SuiteResult records both passes of one suite.
type SuiteResult struct {
	ID         string
	Status     Status
	Steps      []*StepResult
	Cleanup    []*StepResult
	Err        error
	CleanupErr error
	Duration   time.Duration
}

// RunResult is the outcome of a whole run.
type RunResult struct {
	Order    []string
	Suites   []*SuiteResult
	Duration time.Duration
	Latency  LatencySummary
}

// Failed reports whether any suite failed in the forward pass. Cleanup
// failures do not count.
func (r *RunResult) Failed() bool {
	for _, s := range r.Suites {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Counts returns the number of passed, failed and skipped suites.
func (r *RunResult) Counts() (passed, failed, skipped int) {
	for _, s := range r.Suites {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// CleanupFailures returns the suites whose cleanup failed.
func (r *RunResult) CleanupFailures() []*SuiteResult {
	var out []*SuiteResult
	for _, s := range r.Suites {
		if s.CleanupErr != nil {
			out = append(out, s)
		}
	}
	return out
}

// Suite returns the result of id, or nil.
func (r *RunResult) Suite(id string) *SuiteResult {
	for _, s := range r.Suites {
		if s.ID == id {
			return s
		}
	}
	return nil
}
