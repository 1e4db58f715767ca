// Package cmd implements the carledger CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/model"
	"github.com/theirongolddev/carledger/internal/period"
	"github.com/theirongolddev/carledger/internal/store"
)

var (
	flagVehicle string
	flagWindow  string
	flagDB      string
	flagQuiet   bool
	flagDebug   bool
)

// cfg is loaded once before any command runs.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "carledger",
	Short:             "Vehicle maintenance and cost ledger",
	Long:              "Track refuelings, consumables, repairs and expenses, and analyze what your car costs.",
	PersistentPreRunE: prepare,
	RunE:              runSummary,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagVehicle, "vehicle", "v", "", "Vehicle name or ID")
	rootCmd.PersistentFlags().StringVarP(&flagWindow, "window", "w", "",
		"Time window: "+strings.Join(period.Names(), ", ")+" or YYYY-MM")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress and log output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func prepare(_ *cobra.Command, _ []string) error {
	setupLogging()
	config.LoadEnv()

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	cli.Currency = cfg.Display.Currency
	cli.SetTheme(cfg.Display.Theme)
	log.Debug().Str("config", config.ConfigPath()).Bool("exists", config.Exists()).Msg("configuration loaded")
	return nil
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	switch {
	case flagQuiet:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case flagDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// dbPath returns the database path from the flag, env var, config or default.
func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	return config.DBPath(cfg)
}

func openStore() (*store.Store, error) {
	path := dbPath()
	log.Debug().Str("path", path).Msg("opening database")
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return st, nil
}

// resolveVehicle picks the vehicle from the flag, env var or config. With no
// reference and exactly one vehicle stored, that vehicle is used.
func resolveVehicle(st *store.Store) (model.Vehicle, error) {
	ref := flagVehicle
	if ref == "" {
		ref = config.DefaultVehicle(cfg)
	}
	if ref != "" {
		v, err := st.FindVehicle(ref)
		if errors.Is(err, store.ErrNotFound) {
			return model.Vehicle{}, fmt.Errorf("no vehicle named %q; run `carledger vehicles` to list them", ref)
		}
		return v, err
	}

	vehicles, err := st.ListVehicles()
	if err != nil {
		return model.Vehicle{}, err
	}
	switch len(vehicles) {
	case 0:
		return model.Vehicle{}, errors.New("no vehicles yet; add one with `carledger vehicles add` or `carledger import`")
	case 1:
		return vehicles[0], nil
	}

	names := make([]string, len(vehicles))
	for i, v := range vehicles {
		names[i] = v.Name
	}
	return model.Vehicle{}, fmt.Errorf("several vehicles stored (%s); choose one with --vehicle",
		strings.Join(names, ", "))
}

// resolveWindow parses the window from the flag or config, defaulting to a month.
func resolveWindow() (period.Window, error) {
	s := flagWindow
	if s == "" {
		s = cfg.General.DefaultWindow
	}
	if s == "" {
		return period.Rolling(period.Month), nil
	}
	return period.ParseWindow(s)
}

// loadVehicle opens the store and materializes the selected vehicle's records.
func loadVehicle() (model.VehicleRecords, error) {
	st, err := openStore()
	if err != nil {
		return model.VehicleRecords{}, err
	}
	defer st.Close()

	v, err := resolveVehicle(st)
	if err != nil {
		return model.VehicleRecords{}, err
	}
	recs, err := st.LoadRecords(v.ID)
	if err != nil {
		return model.VehicleRecords{}, err
	}
	log.Debug().
		Str("vehicle", v.Name).
		Int("refuelings", len(recs.Refuelings)).
		Int("consumables", len(recs.Consumables)).
		Int("costs", len(recs.Costs)).
		Msg("records loaded")
	return recs, nil
}

// windowTitle renders a header line such as "FUEL  Golf  Last month".
func windowTitle(section string, v *model.Vehicle, w period.Window) string {
	return fmt.Sprintf("%s  %s  %s", section, v.Name, w.Label())
}

func printRange(since, until time.Time) {
	fmt.Println(cli.RenderMuted(fmt.Sprintf("  %s → %s", cli.FormatDate(since), cli.FormatDate(until))))
}

func printEmpty(what string) {
	fmt.Printf("\n  No %s in the selected time range.\n", what)
}
