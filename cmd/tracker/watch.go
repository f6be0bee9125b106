package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/urduaiorg/tracker/internal/ingest"
	"github.com/urduaiorg/tracker/internal/upload"
)

var (
	watchInitialScan bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Watch drop directories and extract metrics from new files",
	Long: `Watches the given directories and runs the extraction pipeline
over every supported file that appears. Runs until interrupted.`,
	Example: `  # Watch a drop directory, processing files already present
  tracker watch ~/Analytics/drop --initial-scan`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "process files already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is picked up")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitialScan,
		Debounce:    watchDebounce,
	}, p.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %d directories, press Ctrl-C to stop\n", len(args))
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return drain(cmd, p)
			}
			submitWatched(cmd, p, path)
		case werr, ok := <-errs:
			if ok && werr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", werr)
			}
		case <-ctx.Done():
			return drain(cmd, p)
		}
	}
}

func submitWatched(cmd *cobra.Command, p *pipeline, path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return // file vanished between event and pickup
	}
	id, err := p.ctrl.Submit(upload.FileInput{
		Name: fi.Name(),
		Size: fi.Size(),
		Path: path,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "submit %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "processing %s (job %s)\n", fi.Name(), id)
}

func drain(cmd *cobra.Command, p *pipeline) error {
	p.ctrl.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "collected %d records\n", len(p.metrics.List()))
	return nil
}
