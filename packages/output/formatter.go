package output

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/yapi/packages/core/runner"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatConsole, FormatJSON}
}

// NewReporter returns the reporter for format, writing to w.
func NewReporter(format string, w io.Writer, verbose, noColor bool) (runner.Reporter, error) {
	switch format {
	case "", FormatConsole:
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %v)", format, Formats())
	}
}
