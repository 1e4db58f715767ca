package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/export"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the selected window's records and statistics to an .xlsx workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default <vehicle>-<window>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	recs, err := loadVehicle()
	if err != nil {
		return err
	}
	w, err := resolveWindow()
	if err != nil {
		return err
	}

	path := flagExportOut
	if path == "" {
		name := strings.ToLower(strings.ReplaceAll(recs.Vehicle.Name, " ", "-"))
		path = fmt.Sprintf("%s-%s.xlsx", name, w.String())
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // output path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := export.WriteXLSX(f, recs, w, time.Now()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	fmt.Printf("  Exported %s (%s) to %s\n", recs.Vehicle.Name, w.Label(), abs)
	return nil
}
