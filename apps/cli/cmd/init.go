package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/yapi/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new yapi project",
	Long: `Initialize a new yapi project.

This creates:
  - .yapi.json             - Configuration file
  - suites/_base.yaml      - Settings shared by the example suites
  - suites/auth.yaml       - Example suite that logs in
  - suites/users.yaml      - Example suite that depends on auth

Examples:
  yapi init
  yapi init ./api-tests --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleBase = `root: http://localhost:3000
headers:
  Accept: application/json
`

const exampleAuth = `vars:
  email: ${randomEmail()}
  password: ${randomString(16)}

steps:
  - name: register
    post: /auth/register
    body:
      email: ${email}
      password: ${password}
    status: 201

  - name: login
    post: /auth/login
    body:
      email: ${email}
      password: ${password}
    status: 200
    capture:
      token: token
    headers:
      Authorization: Bearer ${token}
`

const exampleUsers = `depends_on: auth

steps:
  - name: create user
    post: /users
    body:
      name: user-${makeAlphaId(6)}
    json: user
    status: 201
    check:
      - user.id != nil

  - name: read user
    get: /users/${user.id}
    status: 200
    log: ${json.name}

cleanup:
  - delete: /users/${user.id}
    status: 204
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := suiteDir(args)
	suitesDir := filepath.Join(dir, "suites")

	configFile := filepath.Join(dir, ".yapi.json")
	examples := []struct {
		name    string
		content string
	}{
		{"_base.yaml", exampleBase},
		{"auth.yaml", exampleAuth},
		{"users.yaml", exampleUsers},
	}

	if !forceInit {
		targets := []string{configFile}
		for _, ex := range examples {
			targets = append(targets, filepath.Join(suitesDir, ex.name))
		}
		for _, f := range targets {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := os.MkdirAll(suitesDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", suitesDir, err)
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "yapi/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	for _, ex := range examples {
		path := filepath.Join(suitesDir, ex.name)
		if err := os.WriteFile(path, []byte(ex.content), 0644); err != nil {
			return fmt.Errorf("failed to create example file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nyapi project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'yapi run %s' to execute the example suites.\n", suitesDir)

	return nil
}
