package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/period"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues collects the wizard's answers.
type setupValues struct {
	window   string
	vehicle  string
	currency string
	theme    string
}

func runSetup(_ *cobra.Command, _ []string) error {
	vals := setupValues{
		window:   cfg.General.DefaultWindow,
		vehicle:  cfg.General.DefaultVehicle,
		currency: cfg.Display.Currency,
		theme:    cfg.Display.Theme,
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Welcome to carledger!"))
	fmt.Println()

	form := newSetupForm(vehicleOptions(), &vals).
		WithProgramOptions(tea.WithOutput(os.Stderr))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg.General.DefaultWindow = vals.window
	cfg.General.DefaultVehicle = vals.vehicle
	cfg.Display.Currency = strings.TrimSpace(vals.currency)
	cfg.Display.Theme = vals.theme

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `carledger setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func newSetupForm(vehicles []huh.Option[string], vals *setupValues) *huh.Form {
	windows := make([]huh.Option[string], 0, len(period.Names()))
	for _, name := range period.Names() {
		w, _ := period.ParseWindow(name)
		windows = append(windows, huh.NewOption(w.Label(), name))
	}

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Default time window").
			Description("Used when --window is not given.").
			Options(windows...).
			Value(&vals.window),
		huh.NewInput().
			Title("Currency symbol").
			Value(&vals.currency).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("currency symbol is required")
				}
				return nil
			}),
		huh.NewSelect[string]().
			Title("Color theme").
			Options(huh.NewOptions(cli.ThemeNames()...)...).
			Value(&vals.theme),
	}
	if len(vehicles) > 1 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Default vehicle").
			Options(vehicles...).
			Value(&vals.vehicle))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCharm())
}

// vehicleOptions lists stored vehicles plus a "none" choice. A missing or
// unreadable database yields only the "none" choice.
func vehicleOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("None (ask when ambiguous)", "")}

	st, err := openStore()
	if err != nil {
		log.Debug().Err(err).Msg("skipping vehicle choice")
		return opts
	}
	defer st.Close()

	vehicles, err := st.ListVehicles()
	if err != nil {
		log.Debug().Err(err).Msg("skipping vehicle choice")
		return opts
	}
	for _, v := range vehicles {
		opts = append(opts, huh.NewOption(v.Name, v.Name))
	}
	return opts
}
