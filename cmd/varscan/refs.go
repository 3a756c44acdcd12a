package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var refsCmd = &cobra.Command{
	Use:   "refs <file> <name>",
	Short: "Find the references of a name in a file",
	Long: `List every whole-word occurrence of name in file, with its position and
the trimmed source line.

Examples:
  varscan refs src/app.js apiUrl`,
	Args: cobra.ExactArgs(2),
	RunE: runRefs,
}

var refsJSON bool

func init() {
	rootCmd.AddCommand(refsCmd)

	refsCmd.Flags().BoolVar(&refsJSON, "json", false, "Print references as JSON")
}

func runRefs(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	name := args[1]

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	refs, err := svc.FindReferences(path, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if refsJSON {
		return printJSON(out, refs)
	}

	if len(refs) == 0 {
		fmt.Fprintf(out, "No references to %s\n", name)
		return nil
	}
	fmt.Fprintf(out, "%d references to %s\n", len(refs), name)
	for _, ref := range refs {
		fmt.Fprintf(out, "  %d:%d  %s\n", ref.Line, ref.Character, ref.Context)
	}
	return nil
}
