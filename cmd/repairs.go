package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var repairsCmd = &cobra.Command{
	Use:   "repairs",
	Short: "Breakdowns, accidents and part installs with parts vs labor",
	RunE:  runRepairs,
}

func init() {
	rootCmd.AddCommand(repairsCmd)
}

func runRepairs(_ *cobra.Command, _ []string) error {
	recs, err := loadVehicle()
	if err != nil {
		return err
	}
	w, err := resolveWindow()
	if err != nil {
		return err
	}

	bundle, err := pipeline.Aggregate(recs, w, time.Now())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(windowTitle("REPAIRS", recs.Vehicle, w)))
	printRange(bundle.Since, bundle.Until)
	fmt.Println()

	r := bundle.Repairs
	if r == nil {
		printEmpty("repairs")
		return nil
	}

	pl := r.PartsVsLabor
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Cost", cli.FormatCost(r.TotalCost)},
			{"Repairs", cli.FormatNumber(int64(r.Count))},
			{"Average Cost", cli.FormatCost(r.AverageCost)},
			{"---"},
			{"Parts", fmt.Sprintf("%s  (%s)", cli.FormatCost(pl.PartsCost), cli.FormatShare(pl.PartsPercent))},
			{"Labor", fmt.Sprintf("%s  (%s)", cli.FormatCost(pl.LaborCost), cli.FormatShare(pl.LaborPercent))},
		},
	}))

	fmt.Println()
	printShares("By Category", r.ByCategory)
	printMonthly(r.Monthly)
	fmt.Println()
	return nil
}

// printMonthly prints a monthly cost table when there is more than one month.
func printMonthly(monthly []model.PeriodCost) {
	if len(monthly) < 2 {
		return
	}
	rows := make([][]string, 0, len(monthly))
	for _, m := range monthly {
		rows = append(rows, []string{m.Start.Format("Jan 2006"), cli.FormatCost(m.Cost)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Monthly",
		Headers: []string{"Month", "Cost"},
		Rows:    rows,
	}))
}
