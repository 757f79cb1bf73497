package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/core/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [directory]",
	Short: "Validate suite files and their dependencies",
	Long: `Parse every suite under a directory and check that all dependencies
resolve and form no cycle, without sending any request.

Examples:
  yapi validate
  yapi validate ./api-tests`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	plan, err := loadPlan(suiteDir(args), cfg)
	if err != nil {
		return err
	}

	for _, s := range plan.Order {
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", s.ID)
		for _, w := range s.Warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d suites, no dependency cycles\n", len(plan.Order))
	return nil
}
