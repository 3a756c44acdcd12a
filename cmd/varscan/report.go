package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/varscan/pkg/cache"
	"github.com/gnana997/varscan/pkg/monitor"
)

var reportCmd = &cobra.Command{
	Use:   "report [dir]",
	Short: "Scan a directory and print performance diagnostics",
	Long: `Scan dir one or more times, then print the performance report, result
cache statistics and memory status. Repeated passes are served from the
cache when files are unchanged.

Examples:
  varscan report .
  varscan report ./src --passes 3 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportJSON   bool
	reportPasses int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	reportCmd.Flags().IntVar(&reportPasses, "passes", 2, "Number of workspace scans to run before reporting")
}

// reportOutput is the --json shape of report.
type reportOutput struct {
	Performance monitor.PerformanceReport `json:"performance"`
	Cache       cache.Stats               `json:"cache"`
	Memory      monitor.MemoryStats       `json:"memory"`
	Pressure    monitor.Pressure          `json:"pressure"`
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportPasses < 1 {
		return fmt.Errorf("--passes must be at least 1, got %d", reportPasses)
	}

	root, err := workspaceRoot(args)
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

	ctx, stop := signalContext(cmd)
	defer stop()

	for i := 0; i < reportPasses; i++ {
		_, stats, err := svc.ScanWorkspace(ctx, root)
		if err != nil {
			return err
		}
		if stats.Cancelled {
			return fmt.Errorf("scan cancelled")
		}
	}

	usage := svc.MemoryUsage()
	result := reportOutput{
		Performance: svc.PerformanceReport(),
		Cache:       svc.CacheStats(),
		Memory:      usage,
		Pressure:    svc.Memory().PressureFor(usage.HeapUsed),
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		return printJSON(out, result)
	}
	printReportHuman(out, result)
	return nil
}

func printReportHuman(w io.Writer, r reportOutput) {
	p := r.Performance

	fmt.Fprintln(w, "Performance")
	fmt.Fprintf(w, "  Average scan time   %s\n", p.AverageScanTime.Round(time.Microsecond))
	fmt.Fprintf(w, "  Cache efficiency    %.0f%%\n", p.CacheEfficiency*100)
	fmt.Fprintf(w, "  Error rate          %.1f%%\n", p.ErrorRate*100)
	fmt.Fprintf(w, "  Operations          %d\n", p.TotalOperations)

	if len(p.Operations) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(p.Operations))
		for _, name := range sortedKeys(p.Operations) {
			op := p.Operations[name]
			rows = append(rows, []string{
				name,
				fmt.Sprint(op.Count),
				op.Average.Round(time.Microsecond).String(),
				op.Min.Round(time.Microsecond).String(),
				op.Max.Round(time.Microsecond).String(),
			})
		}
		printTable(w, []string{"OPERATION", "COUNT", "AVG", "MIN", "MAX"}, rows)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cache")
	fmt.Fprintf(w, "  Hits / misses       %d / %d\n", r.Cache.HitCount, r.Cache.MissCount)
	fmt.Fprintf(w, "  Entries             %d of %d\n", r.Cache.EntryCount, r.Cache.MaxEntries)
	fmt.Fprintf(w, "  Size                %d of %d bytes\n", r.Cache.CacheSize, r.Cache.MaxCacheSize)
	fmt.Fprintf(w, "  Evictions           %d\n", r.Cache.Evictions)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Memory")
	fmt.Fprintf(w, "  Heap used           %.1f MB\n", r.Memory.HeapUsedMB())
	fmt.Fprintf(w, "  Pressure            %s\n", r.Pressure)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recommendations")
	for _, rec := range p.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
}
