package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/yapi/packages/core/graph"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
)

// Exit codes for the yapi CLI
const (
	// ExitSuccess indicates all suites passed
	ExitSuccess = 0

	// ExitTestFailure indicates a suite failed in the forward pass
	ExitTestFailure = 1

	// ExitParseError indicates a suite file could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error: a dependency cycle,
	// an unknown dependency or a bad config file
	ExitConfigError = 3

	// ExitNetworkError indicates the --wait-for service never became ready
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

var errTestsFailed = errors.New("tests failed")

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, errTestsFailed):
		return ExitTestFailure
	case errors.Is(err, graph.ErrCyclicDependency), errors.Is(err, graph.ErrUnknownNode):
		return ExitConfigError
	case errors.Is(err, suite.ErrValidation):
		return ExitParseError
	default:
		return ExitUsageError
	}
}
