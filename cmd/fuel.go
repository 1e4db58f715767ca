package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/fuel"
	"github.com/theirongolddev/carledger/internal/period"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var flagFuelLimit int

var fuelCmd = &cobra.Command{
	Use:   "fuel",
	Short: "Fuel spending and consumption by fuel type",
	RunE:  runFuel,
}

func init() {
	fuelCmd.Flags().IntVarP(&flagFuelLimit, "limit", "l", 10, "Number of recent refuelings to list")
	rootCmd.AddCommand(fuelCmd)
}

func runFuel(_ *cobra.Command, _ []string) error {
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
	fmt.Println(cli.RenderTitle(windowTitle("FUEL", recs.Vehicle, w)))
	printRange(bundle.Since, bundle.Until)
	fmt.Println()

	f := bundle.Fuel
	if f == nil {
		printEmpty("refuelings")
		return nil
	}

	var rows [][]string
	if len(f.ByType) > 1 {
		rows = append(rows, []string{
			"All", cli.FormatNumber(int64(f.RefuelCount)), cli.FormatVolume(f.TotalVolume),
			cli.FormatCost(f.TotalCost), cli.FormatRate(f.AverageConsumption), "",
		}, []string{"---"})
	}
	for _, ft := range f.ByType {
		rates := make([]float64, len(ft.Trend))
		for i, p := range ft.Trend {
			rates[i] = p.Rate
		}
		rows = append(rows, []string{
			titleCase(ft.FuelType),
			cli.FormatNumber(int64(ft.RefuelCount)),
			cli.FormatVolume(ft.TotalVolume),
			cli.FormatCost(ft.TotalCost),
			cli.FormatRate(ft.AverageConsumption),
			cli.RenderSparkline(rates),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Fuel Type",
		Headers: []string{"Fuel", "Fills", "Volume", "Cost", "Avg Consumption", "Trend"},
		Rows:    rows,
	}))

	r := period.Resolve(w, now)
	events := pipeline.FilterRefuelings(fuel.Calculate(recs.Refuelings), r)
	if len(events) > flagFuelLimit && flagFuelLimit > 0 {
		events = events[len(events)-flagFuelLimit:]
	}

	recent := make([][]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		kind := "full"
		if !ev.FullTank {
			kind = "partial"
		}
		cost := "—"
		if ev.TotalCost != nil {
			cost = cli.FormatCost(*ev.TotalCost)
		}
		recent = append(recent, []string{
			cli.FormatDate(ev.Date),
			cli.FormatDistance(ev.Mileage),
			cli.FormatVolume(ev.Volume),
			kind,
			cost,
			cli.FormatRate(ev.ConsumptionRate),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recent Refuelings",
		Headers: []string{"Date", "Odometer", "Volume", "Tank", "Cost", "Consumption"},
		Rows:    recent,
	}))
	fmt.Println()
	return nil
}
