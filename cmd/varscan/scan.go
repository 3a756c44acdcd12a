package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/varscan/pkg/config"
	"github.com/gnana997/varscan/pkg/extractor"
	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Scan a directory tree for variable declarations",
	Long: `Scan every supported file below dir (default: the working directory) and
report the variables declared in each.

Build and VCS folders (node_modules, .git, dist, build) are skipped.

Examples:
  varscan scan                          # Scan the working directory
  varscan scan ./src --json             # Machine-readable output
  varscan scan . --exclude "**/*.min.js" --workers 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanJSON     bool
	scanSummary  bool
	scanWorkers  int
	scanExecutor string
	scanExclude  []string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print results as JSON")
	scanCmd.Flags().BoolVar(&scanSummary, "summary", false, "Print counts instead of every variable")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Worker count (0: use the config file)")
	scanCmd.Flags().StringVar(&scanExecutor, "executor", "", "Executor kind: pool or inline (default: use the config file)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Additional doublestar exclude patterns")
}

// scanOutput is the --json shape of scan.
type scanOutput struct {
	Stats   *scanner.ScanStats               `json:"stats"`
	Summary extractor.Summary                `json:"summary"`
	Files   map[string][]parser.VariableInfo `json:"files,omitempty"`
}

// applyScanFlags copies the scan flag overrides onto cfg.
func applyScanFlags(cfg *config.Config) error {
	if scanWorkers > 0 {
		cfg.Scan.Workers = scanWorkers
	}
	if scanExecutor != "" {
		cfg.Scan.Executor = scanExecutor
	}
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, scanExclude...)
	return cfg.Validate()
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot(args)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg); err != nil {
		return err
	}

	svc, err := newService(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	files, stats, err := svc.ScanWorkspace(ctx, root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary := extractor.Summarize(files)

	if scanJSON {
		result := scanOutput{Stats: stats, Summary: summary}
		if !scanSummary {
			result.Files = files
		}
		return printJSON(out, result)
	}

	printScanHuman(out, root, files, stats, summary)
	if stats.Cancelled {
		return fmt.Errorf("scan cancelled")
	}
	return nil
}

func printScanHuman(w io.Writer, root string, files map[string][]parser.VariableInfo, stats *scanner.ScanStats, summary extractor.Summary) {
	fmt.Fprintf(w, "Scanned %d files in %s (%d variables, %d workers, %s executor)\n",
		stats.FilesScanned, stats.TotalTime.Round(time.Millisecond), stats.Variables, stats.Workers, stats.Executor)

	if !scanSummary {
		for _, path := range sortedKeys(files) {
			vars := files[path]
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%s  (%d)\n", relPath(root, path), len(vars))
			for _, v := range vars {
				fmt.Fprintf(w, "  %-24s %-10s %-12s %d:%d  %s\n", v.Name, v.Type, v.DeclarationType, v.Line, v.Character, v.Scope)
			}
		}
	}

	if len(summary.ByType) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By type")
		for _, t := range sortedKeys(summary.ByType) {
			fmt.Fprintf(w, "  %-12s %d\n", t, summary.ByType[t])
		}
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failed files  (%d)\n", len(stats.Errors))
		for _, fe := range stats.Errors {
			fmt.Fprintf(w, "  %s: %v\n", relPath(root, fe.FilePath), fe.Err)
		}
	}
}
