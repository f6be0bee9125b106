package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	exportServer string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the media-kit XLSX from a running trackerd",
	Example: `  # Save the media kit next to the current directory
  tracker export --server http://localhost:8080 --out media-kit.xlsx`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportServer, "server", "http://localhost:8080", "trackerd base URL")
	exportCmd.Flags().StringVar(&exportOut, "out", "media-kit.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, exportServer+"/api/export/xlsx", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", exportOut, n)
	return nil
}
