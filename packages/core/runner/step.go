package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/yapi/packages/assertions"
	"github.com/abdul-hamid-achik/yapi/packages/capture"
	"github.com/abdul-hamid-achik/yapi/packages/core/env"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// runStep executes one step. The order is fixed: request, response
// capture, eval, named capture, log, status, own settings, checks. The
// first failure ends the step.
func (x *execution) runStep(ctx context.Context, s *suite.Suite, phase suite.Phase, index int, step *suite.Step) *StepResult {
	start := time.Now()
	result := &StepResult{
		Phase: phase,
		Index: index,
		Name:  step.Label(),
	}
	err := x.executeStep(ctx, s, step, result)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = &StepError{
			Suite: s.ID,
			Phase: phase,
			Index: index,
			Name:  step.Name,
			Err:   err,
		}
	}
	return result
}

func (x *execution) executeStep(ctx context.Context, s *suite.Suite, step *suite.Step, result *StepResult) error {
	var (
		resp *http.Response
		body any = map[string]any{}
	)

	if !step.Action.IsNone() {
		req, err := x.buildRequest(step)
		if err != nil {
			return err
		}
		result.Method = req.Method
		result.URL = req.URL
		result.Curl = req.Curl()
		x.reporter.RequestSent(s, step, req)

		resp, err = x.transport.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
		}
		result.StatusCode = resp.StatusCode
		x.latency.record(resp.Duration)

		decoded, err := capture.Decode(resp.Body)
		if err != nil {
			x.logger.Debug().Err(err).Str("url", req.URL).Int("bytes", len(resp.Body)).Msg("response body kept as empty mapping")
		}
		body = decoded
		x.state.Context.Set(env.LastResponseKey, body)
	}

	for _, src := range step.Eval {
		if _, err := x.eval.Eval(src); err != nil {
			return fmt.Errorf("eval: %w", err)
		}
	}

	if step.JSON != "" {
		x.state.Context.Set(step.JSON, body)
	}
	if len(step.Capture) > 0 && resp != nil {
		values, missing := capture.ExtractAll(resp, step.Capture)
		x.state.Context.Merge(values)
		for _, name := range missing {
			x.state.Context.Set(name, nil)
			x.logger.Warn().Str("suite", s.ID).Str("capture", name).Str("path", step.Capture[name]).Msg("capture path matched nothing")
		}
	}

	if step.Log != "" {
		line, err := x.eval.SerializeForLog(step.Log)
		if err != nil {
			line = "log error: " + err.Error()
		}
		x.reporter.Logged(s, step, line)
	}

	if step.Status != 0 && resp != nil {
		if err := assertions.Status(step.Status, resp.StatusCode, body); err != nil {
			return err
		}
	}

	if step.Schema != nil && resp != nil {
		if err := assertions.Schema(step.Schema, filepath.Dir(s.Path), body); err != nil {
			return err
		}
	}

	if _, err := x.cascade.Apply(step.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	return assertions.CheckAll(x.eval, step.Check)
}

// buildRequest resolves the target, body and headers of an action.
func (x *execution) buildRequest(step *suite.Step) (*http.Request, error) {
	url, err := x.eval.ResolveURL(x.state.BaseURL, step.Action.Path)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}

	req := http.NewRequest(step.Action.Kind.Method(), url)
	for k, v := range x.state.HeaderValues() {
		req.SetHeader(k, v)
	}

	if step.Body != nil {
		resolved, err := x.eval.Convert(step.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		data, err := json.Marshal(resolved)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		req.Body = data
		if !req.HasHeader("Content-Type") {
			req.SetHeader("Content-Type", "application/json")
		}
	}
	return req, nil
}

// IsAssertionFailure reports whether err is a failed status, check or
// schema assertion rather than a transport or expression error.
func IsAssertionFailure(err error) bool {
	return errors.Is(err, assertions.ErrStatusMismatch) ||
		errors.Is(err, assertions.ErrCheckFailed) ||
		errors.Is(err, assertions.ErrSchema)
}
