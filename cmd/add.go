package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/store"
)

var (
	flagAddDate     string
	flagAddMileage  int
	flagAddCost     float64
	flagAddLabor    float64
	flagAddVolume   float64
	flagAddFuel     string
	flagAddPartial  bool
	flagAddCategory string
	flagAddKind     string
	flagAddTag      string
	flagAddNote     string
	flagAddName     string
	flagAddKm       int
	flagAddDays     int
	flagAddKeep     bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a refueling, consumable or cost",
}

var addRefuelingCmd = &cobra.Command{
	Use:     "refueling",
	Aliases: []string{"fuel"},
	Short:   "Record a refueling",
	RunE:    runAddRefueling,
}

var addConsumableCmd = &cobra.Command{
	Use:   "consumable",
	Short: "Record a consumable installation",
	Long: `Record a consumable installation. Active items of the same category are
marked as replaced at the new installation unless --keep is given.`,
	RunE: runAddConsumable,
}

var addCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Record a breakdown, accident, part or expense",
	RunE:  runAddCost,
}

func init() {
	for _, c := range []*cobra.Command{addRefuelingCmd, addConsumableCmd, addCostCmd} {
		c.Flags().StringVar(&flagAddDate, "date", "", "Date as YYYY-MM-DD or RFC3339 (default now)")
		c.Flags().IntVar(&flagAddMileage, "mileage", 0, "Odometer reading in km")
		c.Flags().Float64Var(&flagAddCost, "cost", 0, "Cost")
		_ = c.MarkFlagRequired("mileage")
	}

	addRefuelingCmd.Flags().Float64Var(&flagAddVolume, "volume", 0, "Liters filled")
	addRefuelingCmd.Flags().StringVar(&flagAddFuel, "fuel", "", "Fuel type (default the vehicle's)")
	addRefuelingCmd.Flags().BoolVar(&flagAddPartial, "partial", false, "Tank was not filled up")
	_ = addRefuelingCmd.MarkFlagRequired("volume")

	addConsumableCmd.Flags().StringVar(&flagAddName, "name", "", "Item name")
	addConsumableCmd.Flags().StringVar(&flagAddCategory, "category", "", "Item category, e.g. oil or brake-pads")
	addConsumableCmd.Flags().Float64Var(&flagAddLabor, "labor", 0, "Service cost")
	addConsumableCmd.Flags().IntVar(&flagAddKm, "interval-km", 0, "Replacement interval in km (default from config)")
	addConsumableCmd.Flags().IntVar(&flagAddDays, "interval-days", 0, "Replacement interval in days (default from config)")
	addConsumableCmd.Flags().BoolVar(&flagAddKeep, "keep", false, "Keep older items of the same category active")
	_ = addConsumableCmd.MarkFlagRequired("name")

	addCostCmd.Flags().StringVar(&flagAddKind, "category", string(model.CategoryExpense),
		"One of breakdown, accident, part, expense")
	addCostCmd.Flags().StringVar(&flagAddTag, "tag", "", "Expense tag, e.g. parking or insurance")
	addCostCmd.Flags().StringVar(&flagAddNote, "note", "", "Description")
	addCostCmd.Flags().Float64Var(&flagAddLabor, "labor", 0, "Labor cost")

	addCmd.AddCommand(addRefuelingCmd, addConsumableCmd, addCostCmd)
	rootCmd.AddCommand(addCmd)
}

// withVehicle opens the store, resolves the vehicle and runs fn.
func withVehicle(fn func(st *store.Store, v model.Vehicle) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := resolveVehicle(st)
	if err != nil {
		return err
	}
	return fn(st, v)
}

func runAddRefueling(_ *cobra.Command, _ []string) error {
	date, err := parseDateFlag(flagAddDate)
	if err != nil {
		return err
	}

	return withVehicle(func(st *store.Store, v model.Vehicle) error {
		r := model.Refueling{
			VehicleID: v.ID,
			Date:      date,
			Mileage:   flagAddMileage,
			Volume:    flagAddVolume,
			FuelType:  flagAddFuel,
			FullTank:  !flagAddPartial,
		}
		if r.FuelType == "" {
			r.FuelType = v.FuelType
		}
		if flagAddCost > 0 {
			cost := flagAddCost
			r.TotalCost = &cost
		}

		if err := st.SaveRefueling(&r); err != nil {
			return err
		}
		fmt.Printf("  Saved refueling at %s  consumption %s\n",
			cli.FormatDistance(r.Mileage), cli.FormatRate(r.ConsumptionRate))
		return nil
	})
}

func runAddConsumable(_ *cobra.Command, _ []string) error {
	date, err := parseDateFlag(flagAddDate)
	if err != nil {
		return err
	}

	return withVehicle(func(st *store.Store, v model.Vehicle) error {
		it := model.ConsumableItem{
			VehicleID:           v.ID,
			Name:                flagAddName,
			Category:            flagAddCategory,
			InstallationMileage: flagAddMileage,
			InstallationDate:    date,
			Active:              true,
			Cost:                flagAddCost,
			ServiceCost:         flagAddLabor,
		}
		it.Category = it.CategoryKey()
		if flagAddKm > 0 {
			km := flagAddKm
			it.IntervalMileage = &km
		}
		if flagAddDays > 0 {
			days := flagAddDays
			it.IntervalDays = &days
		}
		config.ApplyDefaultIntervals(cfg, &it)

		if !flagAddKeep {
			if err := retireCategory(st, it); err != nil {
				return err
			}
		}
		if err := st.SaveConsumable(&it); err != nil {
			return err
		}

		fmt.Printf("  Saved %s at %s  interval %s / %s\n", it.Name, cli.FormatDistance(it.InstallationMileage),
			cli.FormatRemaining(it.IntervalMileage, "km"), cli.FormatRemaining(it.IntervalDays, "days"))
		return nil
	})
}

// retireCategory marks active items of the new item's category installed at or
// before it as replaced at the new item's installation.
func retireCategory(st *store.Store, it model.ConsumableItem) error {
	recs, err := st.LoadRecords(it.VehicleID)
	if err != nil {
		return err
	}
	key := it.CategoryKey()
	for _, old := range recs.Consumables {
		if !old.Active || old.InstallationMileage > it.InstallationMileage ||
			old.CategoryKey() != key {
			continue
		}
		old.Active = false
		mileage, date := it.InstallationMileage, it.InstallationDate
		old.ReplacementMileage = &mileage
		old.ReplacementDate = &date
		if err := st.SaveConsumable(&old); err != nil {
			return fmt.Errorf("retiring %s: %w", old.Name, err)
		}
		log.Info().Str("item", old.Name).Msg("marked as replaced")
	}
	return nil
}

func runAddCost(_ *cobra.Command, _ []string) error {
	date, err := parseDateFlag(flagAddDate)
	if err != nil {
		return err
	}
	category := model.Category(strings.ToLower(flagAddKind))
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", flagAddKind)
	}
	if flagAddCost+flagAddLabor <= 0 {
		return errors.New("--cost or --labor must be positive")
	}

	return withVehicle(func(st *store.Store, v model.Vehicle) error {
		c := model.CostRecord{
			VehicleID:   v.ID,
			Date:        date,
			Mileage:     flagAddMileage,
			Category:    category,
			Tag:         flagAddTag,
			Description: flagAddNote,
			Cost:        flagAddCost,
			ServiceCost: flagAddLabor,
		}
		if err := st.SaveCostRecord(&c); err != nil {
			return err
		}
		fmt.Printf("  Saved %s of %s\n", category, cli.FormatCost(c.Total()))
		return nil
	})
}

// parseDateFlag accepts RFC3339 or a local calendar date; empty means now.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
