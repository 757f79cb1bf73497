package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/yapi/packages/core/cascade"
	"github.com/abdul-hamid-achik/yapi/packages/core/env"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// Transport issues one request.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Pauser blocks between the forward and the reverse pass.
type Pauser interface {
	Pause(ctx context.Context) error
}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	ValidateSSL    bool
	Proxy          string
	Rate           float64

	// Headers and Root seed the live header set and base URL.
	Headers map[string]string
	Root    string

	// EnvVars are exposed under the "env" context key.
	EnvVars map[string]string

	Pause   bool
	Verbose bool
}

type Runner struct {
	config    *Config
	transport Transport
	reporter  Reporter
	pauser    Pauser
	logger    zerolog.Logger
	funcs     map[string]any
}

type Option func(*Runner)

func WithTransport(t Transport) Option {
	return func(r *Runner) {
		r.transport = t
	}
}

func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		r.reporter = rep
	}
}

func WithPauser(p Pauser) Option {
	return func(r *Runner) {
		r.pauser = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithFuncs adds helper functions to the context of every run.
func WithFuncs(funcs map[string]any) Option {
	return func(r *Runner) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirect: true, ValidateSSL: true}
	}
	r := &Runner{
		config:   cfg,
		reporter: NopReporter{},
		logger:   zerolog.Nop(),
		funcs:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transport == nil {
		r.transport = NewClient(cfg)
	}
	return r
}

// NewClient builds the default HTTP transport for cfg.
func NewClient(cfg *Config) *http.Client {
	clientOpts := []http.ClientOption{
		http.WithTimeout(cfg.Timeout),
		http.WithFollowRedirects(cfg.FollowRedirect),
		http.WithValidateSSL(cfg.ValidateSSL),
		http.WithRateLimit(cfg.Rate),
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	return http.NewClient(clientOpts...)
}

// applied holds the evaluated settings a suite ran with, so the reverse
// pass can restore them without evaluating again.
type applied struct {
	base      *suite.Settings
	inherited *suite.Settings
	own       *suite.Settings
}

// execution is the state of one run.
type execution struct {
	*Runner
	state   *env.State
	eval    *env.Evaluator
	cascade *cascade.Cascade
	applied map[string]*applied
	latency *latencyRecorder
}

// Run plans and executes suites. An error is returned only when the suites
// cannot be planned; test failures are reported in the result.
func (r *Runner) Run(ctx context.Context, suites []*suite.Suite) (*RunResult, error) {
	plan, err := BuildPlan(suites)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, plan), nil
}

// Execute runs a plan with a fresh state.
func (r *Runner) Execute(ctx context.Context, plan *Plan) *RunResult {
	start := time.Now()
	x := r.newExecution(plan)

	result := &RunResult{Order: plan.IDs()}
	r.logger.Debug().Strs("order", result.Order).Msg("execution order")
	r.reporter.RunStarted(result.Order)

	failed := false
	for _, s := range plan.Order {
		if failed || ctx.Err() != nil {
			result.Suites = append(result.Suites, &SuiteResult{ID: s.ID, Status: StatusSkipped})
			continue
		}
		res := x.forward(ctx, s)
		result.Suites = append(result.Suites, res)
		if res.Status == StatusFailed {
			failed = true
		}
	}

	if r.config.Pause && r.pauser != nil && ctx.Err() == nil {
		if err := r.pauser.Pause(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("pause interrupted")
		}
	}

	cleanupCtx := context.WithoutCancel(ctx)
	for i := len(plan.Order) - 1; i >= 0; i-- {
		x.reverse(cleanupCtx, plan.Order[i], result.Suites[i])
	}

	result.Duration = time.Since(start)
	result.Latency = x.latency.summary()
	r.reporter.RunFinished(result)
	return result
}

func (r *Runner) newExecution(plan *Plan) *execution {
	state := env.NewState(r.funcs, r.config.EnvVars)
	for k, v := range r.config.Headers {
		state.Headers[k] = v
	}
	state.BaseURL = r.config.Root

	ev := env.NewEvaluator(state.Context, env.WithLogger(r.logger))
	return &execution{
		Runner:  r,
		state:   state,
		eval:    ev,
		cascade: cascade.New(state, ev, plan.Graph, cascade.WithLogger(r.logger)),
		applied: make(map[string]*applied),
		latency: newLatencyRecorder(),
	}
}

// forward applies the settings of s, propagates them to its dependents and
// runs its forward phases.
func (x *execution) forward(ctx context.Context, s *suite.Suite) *SuiteResult {
	start := time.Now()
	result := &SuiteResult{ID: s.ID, Status: StatusPassed}
	x.reporter.SuiteStarted(s)

	if err := x.applySuiteSettings(s); err != nil {
		result.Status = StatusFailed
		result.Err = err
	} else if err := x.runPhases(ctx, s, result); err != nil {
		result.Status = StatusFailed
		result.Err = err
	}

	result.Duration = time.Since(start)
	x.reporter.SuiteFinished(s, result)
	return result
}

func (x *execution) applySuiteSettings(s *suite.Suite) error {
	a := &applied{}
	var err error
	if a.base, err = x.cascade.Apply(s.Base); err != nil {
		return fmt.Errorf("%s: base settings: %w", s.ID, err)
	}
	a.inherited = x.cascade.Inherited(s.ID).Clone()
	x.cascade.Restore(a.inherited)
	if a.own, err = x.cascade.Apply(s.Settings); err != nil {
		return fmt.Errorf("%s: settings: %w", s.ID, err)
	}
	x.applied[s.ID] = a
	x.cascade.Propagate(s.ID, a.own)
	return nil
}

// runPhases runs beforeAll, steps and afterAll, stopping at the first
// failing step.
func (x *execution) runPhases(ctx context.Context, s *suite.Suite, result *SuiteResult) error {
	for _, phase := range suite.ForwardPhases {
		steps := s.Phase(phase)
		if len(steps) == 0 {
			continue
		}
		x.reporter.PhaseStarted(s, phase)
		for i, step := range steps {
			res := x.runStep(ctx, s, phase, i, step)
			result.Steps = append(result.Steps, res)
			if res.Err != nil {
				x.reporter.StepFailed(s, res)
				return res.Err
			}
		}
	}
	return nil
}

// reverse restores the context s ran with and runs its cleanup phase.
// Failures are recorded on result and never stop the pass.
func (x *execution) reverse(ctx context.Context, s *suite.Suite, result *SuiteResult) {
	if _, ran := x.applied[s.ID]; !ran && len(s.Cleanup) == 0 {
		return
	}
	if err := x.restoreSuiteSettings(s); err != nil {
		result.CleanupErr = err
		x.logger.Warn().Err(err).Str("suite", s.ID).Msg("cleanup settings failed")
		x.reporter.CleanupFinished(s, result)
		return
	}
	if len(s.Cleanup) == 0 {
		return
	}

	x.reporter.PhaseStarted(s, suite.PhaseCleanup)
	for i, step := range s.Cleanup {
		res := x.runStep(ctx, s, suite.PhaseCleanup, i, step)
		result.Cleanup = append(result.Cleanup, res)
		if res.Err != nil {
			result.CleanupErr = res.Err
			x.reporter.StepFailed(s, res)
			break
		}
	}
	x.reporter.CleanupFinished(s, result)
}

// restoreSuiteSettings re-applies base, inherited and own settings. Suites
// that ran forward get their recorded values back; the others are
// evaluated now.
func (x *execution) restoreSuiteSettings(s *suite.Suite) error {
	if a, ok := x.applied[s.ID]; ok {
		x.cascade.Restore(a.base)
		x.cascade.Restore(a.inherited)
		x.cascade.Restore(a.own)
		return nil
	}

	if _, err := x.cascade.Apply(s.Base); err != nil {
		return fmt.Errorf("%s: base settings: %w", s.ID, err)
	}
	x.cascade.Restore(x.cascade.Inherited(s.ID))
	if _, err := x.cascade.Apply(s.Settings); err != nil {
		return fmt.Errorf("%s: settings: %w", s.ID, err)
	}
	return nil
}
