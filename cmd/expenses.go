package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Miscellaneous expenses grouped by tag",
	RunE:  runExpenses,
}

func init() {
	rootCmd.AddCommand(expensesCmd)
}

func runExpenses(_ *cobra.Command, _ []string) error {
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
	fmt.Println(cli.RenderTitle(windowTitle("EXPENSES", recs.Vehicle, w)))
	printRange(bundle.Since, bundle.Until)
	fmt.Println()

	e := bundle.Expenses
	if e == nil {
		printEmpty("expenses")
		return nil
	}

	rows := make([][]string, 0, len(e.ByCategory)+2)
	for _, c := range e.ByCategory {
		rows = append(rows, []string{titleCase(c.Category), cli.FormatCost(c.Amount), cli.FormatShare(c.Percent)})
	}
	rows = append(rows, []string{"---"}, []string{
		fmt.Sprintf("Total (%d)", e.Count), cli.FormatCost(e.TotalCost), cli.FormatShare(100),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Tag", "Cost", "Share"},
		Rows:    rows,
	}))

	fmt.Println()
	printShares("Top Categories", e.TopCategories)
	printMonthly(e.Monthly)
	fmt.Println()
	return nil
}
