package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/store"
)

var (
	flagVehicleName    string
	flagVehicleFuel    string
	flagVehicleMileage int
)

var vehiclesCmd = &cobra.Command{
	Use:     "vehicles",
	Aliases: []string{"vehicle"},
	Short:   "List stored vehicles",
	RunE:    runVehicles,
}

var vehiclesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a vehicle or update an existing one by name",
	RunE:  runVehiclesAdd,
}

var vehiclesRemoveCmd = &cobra.Command{
	Use:   "remove <name|id>",
	Short: "Delete a vehicle and all of its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runVehiclesRemove,
}

func init() {
	vehiclesAddCmd.Flags().StringVar(&flagVehicleName, "name", "", "Vehicle name")
	vehiclesAddCmd.Flags().StringVar(&flagVehicleFuel, "fuel", "", "Fuel type, e.g. petrol or diesel")
	vehiclesAddCmd.Flags().IntVar(&flagVehicleMileage, "mileage", 0, "Current odometer reading in km")
	_ = vehiclesAddCmd.MarkFlagRequired("name")

	vehiclesCmd.AddCommand(vehiclesAddCmd, vehiclesRemoveCmd)
	rootCmd.AddCommand(vehiclesCmd)
}

func runVehicles(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	vehicles, err := st.ListVehicles()
	if err != nil {
		return err
	}

	fmt.Println()
	if len(vehicles) == 0 {
		fmt.Println("  No vehicles yet. Add one with `carledger vehicles add --name <name>`.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		fuelType := v.FuelType
		if fuelType == "" {
			fuelType = "—"
		}
		rows = append(rows, []string{v.Name, fuelType, cli.FormatDistance(v.CurrentMileage), v.ID})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Vehicles",
		Headers: []string{"Name", "Fuel", "Odometer", "ID"},
		Rows:    rows,
	}))

	counts, err := st.Counts()
	if err == nil {
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d refuelings, %d consumables, %d cost records in %s",
			counts.Refuelings, counts.Consumables, counts.CostRecords, dbPath())))
	}
	fmt.Println()
	return nil
}

func runVehiclesAdd(_ *cobra.Command, _ []string) error {
	if flagVehicleMileage < 0 {
		return errors.New("mileage must not be negative")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	v := model.Vehicle{Name: flagVehicleName, FuelType: flagVehicleFuel, CurrentMileage: flagVehicleMileage}
	if existing, err := st.FindVehicle(flagVehicleName); err == nil {
		v.ID = existing.ID
		if v.FuelType == "" {
			v.FuelType = existing.FuelType
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if err := st.SaveVehicle(&v); err != nil {
		return err
	}
	fmt.Printf("  Saved %s (%s)\n", v.Name, v.ID)
	return nil
}

func runVehiclesRemove(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	v, err := st.FindVehicle(args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no vehicle named %q", args[0])
	}
	if err != nil {
		return err
	}
	if err := st.DeleteVehicle(v.ID); err != nil {
		return err
	}
	fmt.Printf("  Removed %s and its records\n", v.Name)
	return nil
}
