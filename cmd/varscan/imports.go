package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List the imports of a file",
	Long: `List the import, require and from-import statements of a file. Paths are
shown as written; nothing is resolved on disk.

Examples:
  varscan imports src/app.js
  varscan imports tools/build.py --json`,
	Args: cobra.ExactArgs(1),
	RunE: runImports,
}

var importsJSON bool

func init() {
	rootCmd.AddCommand(importsCmd)

	importsCmd.Flags().BoolVar(&importsJSON, "json", false, "Print imports as JSON")
}

func runImports(cmd *cobra.Command, args []string) error {
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

	imports, err := svc.Imports(commandContext(cmd), path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importsJSON {
		return printJSON(out, imports)
	}

	if len(imports) == 0 {
		fmt.Fprintln(out, "No imports found")
		return nil
	}

	rows := make([][]string, 0, len(imports))
	for _, imp := range imports {
		rows = append(rows, []string{
			imp.Path,
			imp.Name,
			string(imp.Type),
			fmt.Sprintf("%d:%d", imp.Line, imp.Character),
		})
	}
	printTable(out, []string{"PATH", "NAME", "KIND", "POSITION"}, rows)
	return nil
}
