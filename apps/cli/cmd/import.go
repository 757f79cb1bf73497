package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/import/curl"
)

var (
	importOutputFlag string
	importStatusFlag int
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Create suites from other formats",
	Long: `Create yapi suites from other formats.

Supported formats:
  curl - curl commands, one per line (backslash continuations allowed)

Examples:
  yapi import curl requests.sh
  yapi import curl requests.sh -o suites/smoke.yaml --status 200
  yapi import curl "curl -X POST https://api.example.com/users -d '{\"name\":\"Jane\"}'"`,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file|command>",
	Short: "Import curl commands",
	Long: `Convert curl commands into one suite with a step per command.

The source is a file of commands, or a single command starting with "curl".
Headers are hoisted to the suite. When all URLs share a host it becomes the
suite root.`,
	Args: cobra.ExactArgs(1),
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Output file path (default: stdout)")
	importCurlCmd.Flags().IntVar(&importStatusFlag, "status", 0, "Expected status added to every step")

	importCmd.AddCommand(importCurlCmd)
	rootCmd.AddCommand(importCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	converter := curl.NewConverter(curl.WithStatus(importStatusFlag))

	source := args[0]
	var (
		content  []byte
		warnings []string
		err      error
	)
	if strings.HasPrefix(strings.TrimSpace(source), "curl ") {
		commands, rerr := curl.ReadCommands(strings.NewReader(source))
		if rerr != nil {
			return rerr
		}
		content, warnings, err = converter.ConvertYAML(commands...)
	} else {
		content, warnings, err = converter.ConvertFile(source)
	}
	if err != nil {
		return fmt.Errorf("failed to convert curl commands: %w", err)
	}

	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	if importOutputFlag == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	if dir := filepath.Dir(importOutputFlag); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(importOutputFlag, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", importOutputFlag)
	return nil
}
