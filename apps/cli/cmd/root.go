package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	debugFlag  bool
	configFlag string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "yapi",
	Short: "Declarative, dependency-aware HTTP API tests.",
	Long: `yapi runs HTTP API test suites written as YAML files. Suites declare
the suites they depend on; yapi runs them in dependency order, cascades
variables, headers and base URLs from dependencies to dependents, and
always runs every suite's cleanup steps in reverse order at the end.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(os.Stderr, debugFlag)
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		code := exitCode(err)
		if code != ExitTestFailure {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", getEnvBool("YAPI_DEBUG", false), "Log engine diagnostics to stderr (env: YAPI_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("YAPI_CONFIG", ""), "Path to config file (env: YAPI_CONFIG)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(docsCmd)
}
