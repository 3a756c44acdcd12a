package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/gnana997/varscan/pkg/watcher"
	"github.com/gnana997/varscan/pkg/workspace"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Rescan files as they change",
	Long: `Scan dir once, then watch it and rescan each supported file after its
changes settle. Runs until interrupted.

Examples:
  varscan watch                   # Watch the working directory
  varscan watch ./src --quiet     # Only report failures`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchQuiet bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Only print failed rescans")
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	svc.Start()

	ctx, stop := signalContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	_, stats, err := svc.ScanWorkspace(ctx, root)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scanned %d files (%d variables). Watching %s\n", stats.FilesScanned, stats.Variables, root)

	svc.OnUpdate(updatePrinter(out, root, watchQuiet))

	fw, err := watcher.NewFileWatcher(svc, cfg.WatchOptions(), logger)
	if err != nil {
		return err
	}
	if err := fw.Start(root); err != nil {
		return err
	}
	defer fw.Stop()

	<-ctx.Done()
	st := fw.Stats()
	fmt.Fprintf(out, "Stopped after %d events (%d changes, %d deletions)\n", st.Events, st.Changes, st.Deletions)
	return nil
}

// updatePrinter returns a listener writing one line per update. Listeners
// run on scheduler goroutines, so writes are serialized.
func updatePrinter(w io.Writer, root string, quiet bool) workspace.UpdateListener {
	var mu sync.Mutex
	return func(u workspace.Update) {
		if quiet && u.Err == nil {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		switch {
		case u.Err != nil:
			fmt.Fprintf(w, "! %s: %v\n", relPath(root, u.Path), u.Err)
		case u.Kind == workspace.UpdateDeleted:
			fmt.Fprintf(w, "- %s\n", relPath(root, u.Path))
		case u.Kind == workspace.UpdateWorkspace:
			fmt.Fprintf(w, "* workspace: %d files, %d variables\n", u.Stats.FilesScanned, u.Stats.Variables)
		default:
			fmt.Fprintf(w, "~ %s: %d variables\n", relPath(root, u.Path), len(u.Variables))
		}
	}
}
