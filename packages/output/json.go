package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/yapi/packages/core/runner"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary  `json:"summary"`
	Order    []string     `json:"order"`
	Suites   []JSONSuite  `json:"suites"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

// JSONSummary counts suites by outcome
type JSONSummary struct {
	Total           int  `json:"total"`
	Passed          int  `json:"passed"`
	Failed          int  `json:"failed"`
	Skipped         int  `json:"skipped"`
	CleanupFailures int  `json:"cleanupFailures"`
	Success         bool `json:"success"`
}

// JSONSuite represents both passes of one suite
type JSONSuite struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Duration     float64    `json:"duration"`
	Error        string     `json:"error,omitempty"`
	CleanupError string     `json:"cleanupError,omitempty"`
	Steps        []JSONStep `json:"steps,omitempty"`
	Cleanup      []JSONStep `json:"cleanup,omitempty"`
	Logs         []string   `json:"logs,omitempty"`
}

// JSONStep represents one executed step
type JSONStep struct {
	Phase      string  `json:"phase"`
	Index      int     `json:"index"`
	Name       string  `json:"name,omitempty"`
	Method     string  `json:"method,omitempty"`
	URL        string  `json:"url,omitempty"`
	StatusCode int     `json:"statusCode,omitempty"`
	Duration   float64 `json:"duration"`
	Passed     bool    `json:"passed"`
	Error      string  `json:"error,omitempty"`
}

// JSONLatency holds request latency percentiles in milliseconds
type JSONLatency struct {
	Requests int64   `json:"requests"`
	Min      float64 `json:"min"`
	Mean     float64 `json:"mean"`
	P50      float64 `json:"p50"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	Max      float64 `json:"max"`
}

// JSONFormatter collects log lines during the run and writes a single
// document when it finishes.
type JSONFormatter struct {
	runner.NopReporter

	writer io.Writer
	logs   map[string][]string
	err    error
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		logs:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) Logged(s *suite.Suite, _ *suite.Step, line string) {
	f.logs[s.ID] = append(f.logs[s.ID], line)
}

func (f *JSONFormatter) RunFinished(result *runner.RunResult) {
	f.err = f.Write(result)
}

// Err returns the error of the last write, if any.
func (f *JSONFormatter) Err() error {
	return f.err
}

// Write renders result as an indented JSON document.
func (f *JSONFormatter) Write(result *runner.RunResult) error {
	passed, failed, skipped := result.Counts()
	out := JSONOutput{
		Summary: JSONSummary{
			Total:           len(result.Suites),
			Passed:          passed,
			Failed:          failed,
			Skipped:         skipped,
			CleanupFailures: len(result.CleanupFailures()),
			Success:         !result.Failed(),
		},
		Order:    result.Order,
		Suites:   make([]JSONSuite, 0, len(result.Suites)),
		Duration: ms(result.Duration),
		Time:     time.Now().Format(time.RFC3339),
	}

	for _, s := range result.Suites {
		js := JSONSuite{
			ID:       s.ID,
			Status:   string(s.Status),
			Duration: ms(s.Duration),
			Steps:    jsonSteps(s.Steps),
			Cleanup:  jsonSteps(s.Cleanup),
			Logs:     f.logs[s.ID],
		}
		if s.Err != nil {
			js.Error = s.Err.Error()
		}
		if s.CleanupErr != nil {
			js.CleanupError = s.CleanupErr.Error()
		}
		out.Suites = append(out.Suites, js)
	}

	if l := result.Latency; l.Requests > 0 {
		out.Latency = &JSONLatency{
			Requests: l.Requests,
			Min:      ms(l.Min),
			Mean:     ms(l.Mean),
			P50:      ms(l.P50),
			P95:      ms(l.P95),
			P99:      ms(l.P99),
			Max:      ms(l.Max),
		}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("writing json output: %w", err)
	}
	return nil
}

func jsonSteps(steps []*runner.StepResult) []JSONStep {
	if len(steps) == 0 {
		return nil
	}
	out := make([]JSONStep, len(steps))
	for i, r := range steps {
		out[i] = JSONStep{
			Phase:      string(r.Phase),
			Index:      r.Index,
			Name:       r.Name,
			Method:     r.Method,
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Duration:   ms(r.Duration),
			Passed:     r.Passed(),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
