package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/consumable"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Cost overview with distribution and trend",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	recs, err := loadVehicle()
	if err != nil {
		return err
	}
	w, err := resolveWindow()
	if err != nil {
		return err
	}

	now := time.Now()
	bundle, err := pipeline.Aggregate(recs, w, now)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(windowTitle("SUMMARY", recs.Vehicle, w)))
	printRange(bundle.Since, bundle.Until)
	fmt.Println()

	if bundle.Empty {
		printEmpty("records")
		return nil
	}
	g := bundle.General

	// Previous period for comparison
	var prev *model.GeneralSummary
	if pw, anchor, ok := period.Previous(w, now); ok {
		if pb, err := pipeline.Aggregate(recs, pw, anchor); err == nil {
			prev = pb.General
		}
	}

	totalStr := cli.FormatCost(g.TotalCost)
	if prev != nil && prev.TotalCost > 0 {
		totalStr += fmt.Sprintf("  (%s vs prev)", cli.FormatDelta(g.TotalCost, prev.TotalCost))
	}

	rows := [][]string{
		{"Total Cost", totalStr},
		{"Distance", cli.FormatDistance(g.DistanceKm)},
		{"Cost/km", cli.FormatCost(g.CostPerKm)},
		{"---"},
		{"Avg km/day", fmt.Sprintf("%.1f", g.AverageKmPerDay)},
		{"Avg km/month", fmt.Sprintf("%.0f", g.AverageKmPerMonth)},
		{"Odometer", cli.FormatDistance(recs.Vehicle.CurrentMileage)},
	}
	if g.MostExpensiveMonth != nil {
		rows = append(rows, []string{"---"}, []string{
			"Costliest Month",
			fmt.Sprintf("%s  %s", g.MostExpensiveMonth.Start.Format("Jan 2006"), cli.FormatCost(g.MostExpensiveMonth.Cost)),
		})
	}
	if bundle.Fuel != nil && bundle.Fuel.AverageConsumption != nil {
		rows = append(rows, []string{"Avg Consumption", cli.FormatRate(bundle.Fuel.AverageConsumption)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(g.CostDistribution) > 0 {
		fmt.Println()
		printShares("Cost Distribution", g.CostDistribution)
	}

	if len(g.CostTrend) > 1 {
		values := make([]float64, len(g.CostTrend))
		for i, p := range g.CostTrend {
			values[i] = p.Cost
		}
		unit := "monthly"
		if g.DailyTrend {
			unit = "daily"
		}
		fmt.Println()
		fmt.Printf("  Cost trend (%s)  %s\n", unit, cli.RenderSparkline(values))
	}

	statuses := consumable.EvaluateAll(recs.Consumables, recs.Vehicle.CurrentMileage, now)
	warn, crit := pipeline.FleetResult{Statuses: statuses}.Alerts()
	if warn+crit > 0 {
		fmt.Println()
		fmt.Printf("  %d consumable(s) need attention (%d critical). Run `carledger consumables`.\n", warn+crit, crit)
	}
	fmt.Println()
	return nil
}

// printShares renders a horizontal bar chart of category shares.
func printShares(title string, shares []model.CategoryShare) {
	fmt.Printf("  %s\n", title)

	labelWidth := 0
	peak := 0.0
	for _, s := range shares {
		label := shareLabel(s)
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
		if s.Amount > peak {
			peak = s.Amount
		}
	}
	for _, s := range shares {
		fmt.Println(cli.RenderHorizontalBar(shareLabel(s), labelWidth, s.Amount, peak, 30))
	}
}

func shareLabel(s model.CategoryShare) string {
	return fmt.Sprintf("%-12s %7s", titleCase(s.Category), cli.FormatShare(s.Percent))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
