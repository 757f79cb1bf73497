package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/core/config"
	"github.com/abdul-hamid-achik/yapi/packages/output"
)

var listCmd = &cobra.Command{
	Use:   "list [directory]",
	Short: "Show the execution order of the suites under a directory",
	Long: `List the suites found under a directory in the order they would run,
with the suites each one depends on and its step counts per phase.

Examples:
  yapi list
  yapi list ./api-tests`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	plan, err := loadPlan(suiteDir(args), cfg)
	if err != nil {
		return err
	}
	output.PlanTable(cmd.OutOrStdout(), plan, cfg.GetNoColor())
	return nil
}
