package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/consumable"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

var flagAllConsumables bool

var consumablesCmd = &cobra.Command{
	Use:     "consumables",
	Aliases: []string{"parts"},
	Short:   "Wear status of installed consumables and their maintenance cost",
	RunE:    runConsumables,
}

func init() {
	consumablesCmd.Flags().BoolVarP(&flagAllConsumables, "all", "a", false, "Include replaced (inactive) items")
	rootCmd.AddCommand(consumablesCmd)
}

func runConsumables(_ *cobra.Command, _ []string) error {
	recs, err := loadVehicle()
	if err != nil {
		return err
	}
	w, err := resolveWindow()
	if err != nil {
		return err
	}

	now := time.Now()
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CONSUMABLES  %s  %s",
		recs.Vehicle.Name, cli.FormatDistance(recs.Vehicle.CurrentMileage))))
	fmt.Println()

	statuses := consumable.EvaluateAll(recs.Consumables, recs.Vehicle.CurrentMileage, now)
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		if !s.Item.Active && !flagAllConsumables {
			continue
		}
		rows = append(rows, statusRow(s))
	}

	if len(rows) == 0 {
		fmt.Println("  No consumables tracked.")
	} else {
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Item", "Installed", "Wear", "Km Left", "Days Left", "Status"},
			Rows:    rows,
		}))
	}

	bundle, err := pipeline.Aggregate(recs, w, now)
	if err != nil {
		return err
	}
	c := bundle.Consumables
	if c == nil {
		fmt.Println()
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  No installations in %s.", w.Label())))
		fmt.Println()
		return nil
	}

	catRows := make([][]string, 0, len(c.ByCategory)+2)
	for _, cat := range c.ByCategory {
		catRows = append(catRows, []string{
			titleCase(cat.Category),
			cli.FormatNumber(int64(cat.ReplacementCount)),
			cli.FormatCost(cat.TotalCost),
			cli.FormatCost(cat.AverageCost),
			cli.FormatShare(cat.Percent),
		})
	}
	catRows = append(catRows, []string{"---"}, []string{
		"Total",
		cli.FormatNumber(int64(c.ReplacementCount)),
		cli.FormatCost(c.TotalCost),
		cli.FormatCost(c.AverageMaintenanceCostWithService),
		cli.FormatShare(100),
	})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Maintenance Cost  " + w.Label(),
		Headers: []string{"Category", "Installs", "Cost", "Avg", "Share"},
		Rows:    catRows,
	}))
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  Average parts only: %s", cli.FormatCost(c.AverageMaintenanceCost))))
	fmt.Println()
	return nil
}

func statusRow(s model.ConsumableStatus) []string {
	installed := fmt.Sprintf("%s  %s", cli.FormatDate(s.Item.InstallationDate), cli.FormatDistance(s.Item.InstallationMileage))
	if !s.Item.Active {
		return []string{s.Item.Name, installed, cli.RenderMuted("replaced"), "—", "—", ""}
	}
	return []string{
		s.Item.Name,
		installed,
		cli.RenderGauge(s.Info, 20),
		cli.FormatRemaining(s.Info.RemainingMileage, "km"),
		cli.FormatRemaining(s.Info.RemainingDays, "days"),
		cli.FormatStatus(s.Info.Status),
	}
}
