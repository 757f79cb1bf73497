package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/yapi/packages/assertions"
	"github.com/abdul-hamid-achik/yapi/packages/core/runner"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// formatValue formats a value for display, truncating long renderings
func formatValue(v any, maxLen int) string {
	var str string
	switch val := v.(type) {
	case string:
		str = val
	default:
		str = compactJSON(v)
	}
	if maxLen > 0 && len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// ConsoleFormatter prints run events as they happen.
type ConsoleFormatter struct {
	runner.NopReporter

	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

var (
	banner  = color.New(color.BgGreen, color.FgBlack).SprintFunc()
	request = color.New(color.FgCyan).SprintFunc()
	logLine = color.New(color.FgBlue).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
)

func (f *ConsoleFormatter) RunStarted(order []string) {
	if f.verbose {
		fmt.Fprintf(f.writer, "%s %s\n", faint("order:"), strings.Join(order, " → "))
	}
}

func (f *ConsoleFormatter) SuiteStarted(s *suite.Suite) {
	fmt.Fprintf(f.writer, "%s\n", banner(" - RUN FILE "+s.ID+" "))
	for _, w := range s.Warnings {
		fmt.Fprintf(f.writer, "   %s %s\n", yellow("warning:"), w)
	}
}

func (f *ConsoleFormatter) PhaseStarted(s *suite.Suite, phase suite.Phase) {
	if phase == suite.PhaseCleanup {
		fmt.Fprintf(f.writer, "%s\n", banner(" - CLEANUP "+s.ID+" "))
		return
	}
	fmt.Fprintf(f.writer, "   %s\n", banner(" - "+phase.Label()+" "))
}

func (f *ConsoleFormatter) RequestSent(_ *suite.Suite, _ *suite.Step, req *http.Request) {
	fmt.Fprintf(f.writer, "   %s\n", request(fmt.Sprintf(" - %s %s", req.Method, req.URL)))
	if f.verbose {
		fmt.Fprintf(f.writer, "     %s\n", faint(req.Curl()))
	}
}

func (f *ConsoleFormatter) Logged(_ *suite.Suite, _ *suite.Step, line string) {
	fmt.Fprintf(f.writer, "     %s\n", logLine(line))
}

// failureLine labels assertion failures FAIL and everything else ERROR.
func failureLine(err error) string {
	if runner.IsAssertionFailure(err) {
		return " - FAIL: " + err.Error()
	}
	return " - ERROR: " + err.Error()
}

func (f *ConsoleFormatter) StepFailed(_ *suite.Suite, result *runner.StepResult) {
	fmt.Fprintf(f.writer, "%s\n", failure(failureLine(result.Err)))
	f.failureDetails(result.Err)
	if result.Curl != "" && !f.verbose {
		fmt.Fprintf(f.writer, "     %s %s\n", faint("reproduce:"), faint(result.Curl))
	}
}

func (f *ConsoleFormatter) failureDetails(err error) {
	var mismatch *assertions.StatusMismatchError
	var check *assertions.CheckFailedError
	var schema *assertions.SchemaError
	switch {
	case errors.As(err, &mismatch):
		fmt.Fprintf(f.writer, "     Expected: %d\n", mismatch.Expected)
		fmt.Fprintf(f.writer, "     Actual:   %d\n", mismatch.Actual)
		fmt.Fprintf(f.writer, "     Body:     %s\n", formatValue(mismatch.Body, 500))
	case errors.As(err, &check):
		fmt.Fprintf(f.writer, "     Check:    %s\n", check.Expression)
		fmt.Fprintf(f.writer, "     Actual:   %s\n", formatValue(check.Actual, 200))
	case errors.As(err, &schema):
		for _, v := range schema.Violations {
			fmt.Fprintf(f.writer, "     - %s\n", v)
		}
	}
}

func (f *ConsoleFormatter) SuiteFinished(s *suite.Suite, result *runner.SuiteResult) {
	if result.Err != nil && len(result.Steps) == 0 {
		fmt.Fprintf(f.writer, "%s\n", failure(failureLine(result.Err)))
	}
	if f.verbose {
		fmt.Fprintf(f.writer, "   %s\n", faint(fmt.Sprintf("%s %s in %s", s.ID, result.Status, formatDuration(result.Duration))))
	}
}

func (f *ConsoleFormatter) CleanupFinished(_ *suite.Suite, result *runner.SuiteResult) {
	var stepErr *runner.StepError
	if result.CleanupErr != nil && !errors.As(result.CleanupErr, &stepErr) {
		fmt.Fprintf(f.writer, "%s\n", failure(failureLine(result.CleanupErr)))
	}
}

func (f *ConsoleFormatter) RunFinished(result *runner.RunResult) {
	passed, failed, skipped := result.Counts()

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Suites:   ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", failure(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Suites))

	if cf := result.CleanupFailures(); len(cf) > 0 {
		ids := make([]string, len(cf))
		for i, s := range cf {
			ids[i] = s.ID
		}
		fmt.Fprintf(f.writer, "Cleanup:  %s\n", yellow(fmt.Sprintf("%d failed (%s)", len(cf), strings.Join(ids, ", "))))
	}

	if l := result.Latency; l.Requests > 0 {
		fmt.Fprintf(f.writer, "Requests: %d (p50 %s, p95 %s, p99 %s, max %s)\n",
			l.Requests, formatDuration(l.P50), formatDuration(l.P95), formatDuration(l.P99), formatDuration(l.Max))
	}
	fmt.Fprintf(f.writer, "Time:     %s\n", formatDuration(result.Duration))
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", failure("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "%s %s\n", bold("yapi"), version)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
