package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default window:  %s\n", cfg.General.DefaultWindow)
	vehicle := config.DefaultVehicle(cfg)
	if vehicle == "" {
		vehicle = "not set"
	}
	fmt.Printf("    Default vehicle: %s%s\n", vehicle, envNote(config.EnvVehicle))
	fmt.Printf("    Database:        %s%s\n", dbPath(), envNote(config.EnvDB))
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Currency: %s\n", cfg.Display.Currency)
	fmt.Printf("    Theme:    %s  (available: %s)\n", cfg.Display.Theme, strings.Join(cli.ThemeNames(), ", "))
	fmt.Println()

	fmt.Println("  [Intervals]")
	names := make([]string, 0, len(config.DefaultIntervals)+len(cfg.Intervals))
	seen := make(map[string]bool)
	for name := range config.DefaultIntervals {
		names = append(names, name)
		seen[name] = true
	}
	for name := range cfg.Intervals {
		if key := model.NormalizeCategory(name); !seen[key] {
			names = append(names, key)
			seen[key] = true
		}
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		iv, _ := config.LookupInterval(cfg, name)
		rows = append(rows, []string{name, intervalCell(iv.Km, "km"), intervalCell(iv.Days, "days"), overrideNote(name)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Distance", "Time", ""},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Println("  Run `carledger setup` to reconfigure.")
	return nil
}

func envNote(key string) string {
	if os.Getenv(key) != "" {
		return fmt.Sprintf("  (from $%s)", key)
	}
	return ""
}

func intervalCell(n int, unit string) string {
	if n <= 0 {
		return "—"
	}
	return fmt.Sprintf("%s %s", cli.FormatNumber(int64(n)), unit)
}

func overrideNote(category string) string {
	for name := range cfg.Intervals {
		if model.NormalizeCategory(name) == category {
			return "custom"
		}
	}
	return ""
}
