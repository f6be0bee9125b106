package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/upload"
)

var processJSON bool

var processCmd = &cobra.Command{
	Use:   "process <file-or-dir>...",
	Short: "Run metric extraction over local files",
	Long: `Runs the extraction pipeline over the given files. Directories
are walked recursively; files with unsupported extensions are skipped.
Prints a per-file summary and the extracted records.`,
	Example: `  # Extract metrics from a screenshot and a spreadsheet
  tracker process insta.png report.xlsx

  # Process a whole directory and emit records as JSON
  tracker process ./exports --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print extracted records as JSON")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported files found")
	}

	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if _, err := p.ctrl.Submit(upload.FileInput{
			Name: fi.Name(),
			Size: fi.Size(),
			Path: path,
		}); err != nil {
			return fmt.Errorf("submit %s: %w", path, err)
		}
	}
	p.ctrl.Wait()

	if processJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p.metrics.List())
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tSTATUS\tRECORDS\tERROR")
	var failed int
	for _, job := range p.jobs.List() {
		errMsg := ""
		if job.Error != nil {
			errMsg = *job.Error
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			job.Name, common.FormatBytes(job.Size), job.Status, len(job.Records), errMsg)
	}
	w.Flush()

	fmt.Fprintln(cmd.OutOrStdout())
	rw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(rw, "PLATFORM\tMETRIC\tVALUE\tPERIOD\tCONFIDENCE")
	for _, rec := range p.metrics.List() {
		conf := ""
		if rec.Confidence != nil {
			conf = fmt.Sprintf("%d%%", *rec.Confidence)
		}
		fmt.Fprintf(rw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Platform, rec.MetricName, rec.MetricValue, rec.Period, conf)
	}
	rw.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// collectFiles expands the given paths: files pass through as-is,
// directories are walked for supported extensions.
func collectFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if constants.ClassifyFilename(d.Name()) != constants.KindUnknown {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
