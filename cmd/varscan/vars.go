package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var varsCmd = &cobra.Command{
	Use:   "vars <file>",
	Short: "List the variables declared in a file",
	Long: `Parse one file and list its variable declarations with their inferred
type, declaration kind, position and scope.

Examples:
  varscan vars src/app.js
  varscan vars config.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVars,
}

var varsJSON bool

func init() {
	rootCmd.AddCommand(varsCmd)

	varsCmd.Flags().BoolVar(&varsJSON, "json", false, "Print the full per-file result as JSON")
}

func runVars(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.ParseFile(commandContext(cmd), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if varsJSON {
		return printJSON(out, result)
	}

	fmt.Fprintf(out, "%s  [%s]\n\n", args[0], result.LanguageName)
	printVariables(out, result.Variables)
	return nil
}
