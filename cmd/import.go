package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/source"
)

var (
	flagDefaultIntervals bool
	flagDryRun           bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import records from JSONL files",
	Long: `Import vehicles, refuelings, consumables and cost records from JSONL files.
Each line is one JSON object with a "type" of vehicle, refueling, consumable or cost.
Directories are searched recursively for *.jsonl files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagDefaultIntervals, "default-intervals", false,
		"Fill missing consumable intervals from the configured defaults")
	importCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Parse and report without saving")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	files, err := source.ScanPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .jsonl files found in %v", args)
	}
	log.Debug().Int("files", len(files)).Msg("parsing record files")

	res := source.ParseAll(files)
	if res.Err != nil {
		return res.Err
	}

	if flagDefaultIntervals {
		filled := 0
		for i := range res.Batch.Consumables {
			if config.ApplyDefaultIntervals(cfg, &res.Batch.Consumables[i]) {
				filled++
			}
		}
		log.Info().Int("consumables", filled).Msg("applied default intervals")
	}

	fmt.Println()
	fmt.Printf("  Parsed %s records from %d file(s)", cli.FormatNumber(int64(res.Batch.Len())), len(files))
	if res.ParseErrors > 0 {
		fmt.Printf(", %d line(s) rejected", res.ParseErrors)
	}
	fmt.Println()
	printProblems(res.Problems, 5)

	if flagDryRun {
		fmt.Println()
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := source.Import(st, res.Batch)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Imported",
		Headers: []string{"Record", "Count"},
		Rows: [][]string{
			{"Vehicles", cli.FormatNumber(int64(stats.Vehicles))},
			{"Refuelings", cli.FormatNumber(int64(stats.Refuelings))},
			{"Consumables", cli.FormatNumber(int64(stats.Consumables))},
			{"Cost records", cli.FormatNumber(int64(stats.Costs))},
			{"---"},
			{"Skipped", cli.FormatNumber(int64(stats.Skipped))},
		},
	}))
	fmt.Println()
	return nil
}

func printProblems(problems []source.LineError, limit int) {
	for i, p := range problems {
		if i == limit {
			fmt.Println(cli.RenderMuted(fmt.Sprintf("    ... and %d more", len(problems)-limit)))
			return
		}
		fmt.Println(cli.RenderMuted("    " + p.Error()))
	}
}
