package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Compare costs across all vehicles",
	RunE:  runFleet,
}

func init() {
	rootCmd.AddCommand(fleetCmd)
}

func runFleet(_ *cobra.Command, _ []string) error {
	w, err := resolveWindow()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	all, err := pipeline.Load(st)
	_ = st.Close()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return errors.New("no vehicles yet; add one with `carledger vehicles add`")
	}

	var progressFn pipeline.ProgressFunc
	if !flagQuiet && len(all) > 1 {
		progressFn = func(current, total int) {
			fmt.Fprintf(os.Stderr, "\r  %s", cli.RenderProgressBar(current, total, 30))
		}
	}

	results := pipeline.AggregateFleet(all, w, time.Now(), progressFn)
	if progressFn != nil {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("FLEET  " + w.Label()))
	fmt.Println()

	rows := make([][]string, 0, len(results)+2)
	var total float64
	var distance int
	for _, r := range results {
		if r.Err != nil {
			log.Warn().Str("vehicle", r.Vehicle.Name).Err(r.Err).Msg("aggregation failed")
			rows = append(rows, []string{r.Vehicle.Name, "—", "—", "—", "—", "error"})
			continue
		}

		cost, km, perKm := 0.0, 0, "—"
		if g := r.Bundle.General; g != nil {
			cost, km = g.TotalCost, g.DistanceKm
			if km > 0 {
				perKm = cli.FormatCost(g.CostPerKm)
			}
		}
		total += cost
		distance += km

		warn, crit := r.Alerts()
		alerts := "ok"
		switch {
		case crit > 0:
			alerts = fmt.Sprintf("%d critical", crit)
			if warn > 0 {
				alerts += fmt.Sprintf(", %d warning", warn)
			}
		case warn > 0:
			alerts = fmt.Sprintf("%d warning", warn)
		}

		rows = append(rows, []string{
			r.Vehicle.Name,
			cli.FormatDistance(r.Vehicle.CurrentMileage),
			cli.FormatDistance(km),
			cli.FormatCost(cost),
			perKm,
			alerts,
		})
	}

	if len(results) > 1 {
		perKm := "—"
		if distance > 0 {
			perKm = cli.FormatCost(total / float64(distance))
		}
		rows = append(rows, []string{"---"}, []string{
			fmt.Sprintf("Fleet (%d)", len(results)), "", cli.FormatDistance(distance), cli.FormatCost(total), perKm, "",
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Vehicle", "Odometer", "Distance", "Cost", "Cost/km", "Consumables"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
