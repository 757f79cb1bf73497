package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/core/config"
	"github.com/abdul-hamid-achik/yapi/packages/core/env"
	"github.com/abdul-hamid-achik/yapi/packages/core/runner"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	"github.com/abdul-hamid-achik/yapi/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run [directory]",
	Short: "Run every suite under a directory",
	Long: `Run every suite found under a directory (default: current directory).

Suites run in dependency order. The first failing suite stops the forward
pass; the cleanup steps of every suite then run in reverse order.

Examples:
  yapi run ./api-tests
  yapi run ./api-tests --root http://localhost:3000
  yapi run ./api-tests --env-file .env.local -H "Authorization: Bearer xyz"
  yapi run ./api-tests --output json > results.json
  yapi run ./api-tests --pause
  yapi run ./api-tests --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommand,
}

var (
	envFileFlag        []string
	outputFlag         string
	verboseFlag        bool
	noColorFlag        bool
	timeoutFlag        string
	rootFlag           string
	headerFlags        []string
	proxyFlag          string
	insecureFlag       bool
	noFollowFlag       bool
	maxRedirectsFlag   int
	rateFlag           float64
	pauseFlag          bool
	watchFlag          bool
	lenientActionsFlag bool
	waitForFlag        string
	waitTimeoutFlag    time.Duration
	dryRunFlag         bool
)

func init() {
	// Input flags
	runCmd.Flags().StringSliceVar(&envFileFlag, "env-file", splitEnvList(getEnvString("YAPI_ENV_FILE", "")), "Path to .env file exposed under env (repeatable) (env: YAPI_ENV_FILE)")
	runCmd.Flags().StringVar(&rootFlag, "root", getEnvString("YAPI_ROOT", ""), "Initial base URL (env: YAPI_ROOT)")
	runCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Initial header, \"Name: value\" (repeatable)")
	runCmd.Flags().BoolVar(&lenientActionsFlag, "lenient-actions", getEnvBool("YAPI_LENIENT_ACTIONS", false), "Allow several actions on one step; the first by precedence wins (env: YAPI_LENIENT_ACTIONS)")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("YAPI_OUTPUT", ""), "Output format: console, json (env: YAPI_OUTPUT)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("YAPI_VERBOSE", false), "Show execution order, curl commands and timings (env: YAPI_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("YAPI_NO_COLOR", false), "Disable colored output (env: YAPI_NO_COLOR)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the execution plan without sending requests")

	// Execution flags
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("YAPI_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: YAPI_TIMEOUT)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("YAPI_RATE", 0), "Maximum requests per second, 0 for unlimited (env: YAPI_RATE)")
	runCmd.Flags().BoolVar(&pauseFlag, "pause", getEnvBool("YAPI_PAUSE", false), "Wait for Enter before running cleanup (env: YAPI_PAUSE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch suite files for changes and re-run")
	runCmd.Flags().StringVar(&waitForFlag, "wait-for", getEnvString("YAPI_WAIT_FOR", ""), "URL to poll until it answers 200 before running (env: YAPI_WAIT_FOR)")
	runCmd.Flags().DurationVar(&waitTimeoutFlag, "wait-timeout", 30*time.Second, "How long --wait-for polls before giving up")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("YAPI_PROXY", ""), "Proxy URL for HTTP requests (env: YAPI_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("YAPI_INSECURE", false), "Disable SSL certificate validation (env: YAPI_INSECURE)")
	runCmd.Flags().BoolVar(&noFollowFlag, "no-follow-redirects", false, "Do not follow redirects")
	runCmd.Flags().IntVar(&maxRedirectsFlag, "max-redirects", getEnvInt("YAPI_MAX_REDIRECTS", 0), "Maximum redirects to follow (env: YAPI_MAX_REDIRECTS)")
}

func splitEnvList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// flagConfig collects the flags that were set, on the command line or
// through their environment variable, as a config overlay.
func flagConfig(cmd *cobra.Command) (*config.Config, error) {
	set := func(name, envKey string) bool {
		return cmd.Flags().Changed(name) || (envKey != "" && os.Getenv(envKey) != "")
	}

	c := &config.Config{
		Root:         rootFlag,
		Proxy:        proxyFlag,
		Rate:         rateFlag,
		MaxRedirects: maxRedirectsFlag,
		Output:       outputFlag,
		EnvFiles:     envFileFlag,
		WaitFor:      waitForFlag,
	}

	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		c.Timeout = int(timeout.Milliseconds())
	}

	if len(headerFlags) > 0 {
		c.Headers = make(map[string]string, len(headerFlags))
		for _, h := range headerFlags {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("invalid header %q (use \"Name: value\")", h)
			}
			c.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	if set("insecure", "YAPI_INSECURE") {
		c.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if set("no-follow-redirects", "") {
		c.FollowRedirects = config.BoolPtr(!noFollowFlag)
	}
	if set("lenient-actions", "YAPI_LENIENT_ACTIONS") {
		c.StrictActions = config.BoolPtr(!lenientActionsFlag)
	}
	if set("pause", "YAPI_PAUSE") {
		c.Pause = config.BoolPtr(pauseFlag)
	}
	if set("verbose", "YAPI_VERBOSE") {
		c.Verbose = config.BoolPtr(verboseFlag)
	}
	if set("no-color", "YAPI_NO_COLOR") {
		c.NoColor = config.BoolPtr(noColorFlag)
	}

	return c, c.Validate()
}

// loadConfig merges the config file with the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	flags, err := flagConfig(cmd)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	return fileConfig.Merge(flags), nil
}

// runnerConfig translates the resolved configuration for the runner.
func runnerConfig(c *config.Config) (*runner.Config, error) {
	dotenv, err := env.LoadEnvFiles(c.EnvFiles...)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return &runner.Config{
		Timeout:        c.TimeoutDuration(),
		FollowRedirect: c.GetFollowRedirects(),
		MaxRedirects:   c.MaxRedirects,
		ValidateSSL:    c.GetValidateSSL(),
		Proxy:          c.Proxy,
		Rate:           c.Rate,
		Headers:        c.Headers,
		Root:           c.Root,
		EnvVars:        env.SystemEnv(dotenv),
		Pause:          c.GetPause(),
		Verbose:        c.GetVerbose(),
	}, nil
}

func suiteDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// loadPlan discovers the suites under dir and orders them.
func loadPlan(dir string, c *config.Config) (*runner.Plan, error) {
	suites, err := suite.Discover(dir, suite.ParseOptions{LenientActions: !c.GetStrictActions()})
	if err != nil {
		return nil, withExitCode(ExitParseError, err)
	}
	if len(suites) == 0 {
		return nil, withExitCode(ExitUsageError, fmt.Errorf("no suite files found in %s", dir))
	}
	for _, s := range suites {
		for _, w := range s.Warnings {
			logger.Warn().Str("suite", s.ID).Msg(w)
		}
	}
	plan, err := runner.BuildPlan(suites)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return plan, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := suiteDir(args)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dryRunFlag {
		plan, err := loadPlan(dir, cfg)
		if err != nil {
			return err
		}
		output.PlanTable(cmd.OutOrStdout(), plan, cfg.GetNoColor())
		return nil
	}

	if cfg.WaitFor != "" {
		if err := waitForService(ctx, cfg); err != nil {
			return withExitCode(ExitNetworkError, err)
		}
	}

	err = runOnce(ctx, cmd, dir, cfg)
	if !watchFlag {
		return err
	}
	if err != nil && exitCode(err) != ExitTestFailure {
		logger.Error().Err(err).Msg("run failed")
	}
	return watch(ctx, cmd, dir, cfg)
}

func waitForService(ctx context.Context, cfg *config.Config) error {
	rcfg, err := runnerConfig(cfg)
	if err != nil {
		return err
	}
	r := runner.NewRunner(rcfg, runner.WithLogger(logger))
	return r.WaitFor(ctx, runner.WaitForConfig{URL: cfg.WaitFor, Timeout: waitTimeoutFlag})
}

// runOnce executes one complete run from a fresh state.
func runOnce(ctx context.Context, cmd *cobra.Command, dir string, cfg *config.Config) error {
	reporter, err := output.NewReporter(cfg.Output, cmd.OutOrStdout(), cfg.GetVerbose(), cfg.GetNoColor())
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if console, ok := reporter.(*output.ConsoleFormatter); ok {
		console.FormatHeader(version)
	}

	plan, err := loadPlan(dir, cfg)
	if err != nil {
		return err
	}
	rcfg, err := runnerConfig(cfg)
	if err != nil {
		return err
	}

	r := runner.NewRunner(rcfg,
		runner.WithReporter(reporter),
		runner.WithLogger(logger),
		runner.WithPauser(newReadlinePauser()),
	)
	result := r.Execute(ctx, plan)

	if j, ok := reporter.(*output.JSONFormatter); ok && j.Err() != nil {
		return j.Err()
	}
	if result.Failed() {
		return errTestsFailed
	}
	return nil
}
