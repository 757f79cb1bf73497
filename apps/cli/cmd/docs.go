package cmd

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/builtin"
)

//go:embed reference.md
var referenceDoc string

var docsHelpers bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print the suite file reference",
	Long:  "Print the reference for suite files, expressions and helper functions.",
	Run: func(cmd *cobra.Command, args []string) {
		if docsHelpers {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(builtin.NewRegistry().Names(), "\n"))
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), referenceDoc)
	},
}

func init() {
	docsCmd.Flags().BoolVar(&docsHelpers, "helpers", false, "List every helper function name, one per line")
}
