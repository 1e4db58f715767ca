package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/carledger/internal/cli"
	"github.com/theirongolddev/carledger/internal/config"
	"github.com/theirongolddev/carledger/internal/daemon"
)

// daemonState is written next to the database while the daemon runs.
type daemonState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr     string
	flagDaemonInterval time.Duration
	flagDaemonSchedule string
	flagDaemonDetach   bool
	flagDaemonState    string
	flagDaemonLog      string
	flagDaemonEvents   int
	flagDaemonChild    bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve fleet costs and consumable status over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8788", "HTTP listen address")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 30*time.Second, "Polling interval")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonSchedule, "schedule", "",
		`Cron schedule for polling, e.g. "*/5 * * * *" (overrides --interval)`)
	daemonCmd.PersistentFlags().StringVar(&flagDaemonState, "state-file",
		filepath.Join(config.DataDir(), "daemon.json"), "Daemon state file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLog, "log-file",
		filepath.Join(config.DataDir(), "daemon.log"), "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEvents, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if err := ensureDaemonNotRunning(flagDaemonState); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonState), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

func startDaemonDetached() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		args = append(args, a)
	}
	args = append(args, "--child")

	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLog)
	return nil
}

func runDaemonForeground() error {
	w, err := resolveWindow()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	state := daemonState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DBPath:    dbPath(),
	}
	if err := writeDaemonState(flagDaemonState, state); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonState) }()

	svc := daemon.New(daemon.Config{
		Window:       w,
		Interval:     flagDaemonInterval,
		Schedule:     flagDaemonSchedule,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEvents,
	}, st)

	log.Info().
		Str("addr", flagDaemonAddr).
		Str("schedule", svc.Schedule()).
		Str("window", w.String()).
		Str("db", state.DBPath).
		Msg("carledger daemon listening")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	state, err := readDaemonState(flagDaemonState)
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !processAlive(state.PID) {
		fmt.Printf("  Daemon: stale state file (pid %d not alive)\n", state.PID)
		return nil
	}

	fmt.Printf("  Daemon PID: %d\n", state.PID)
	fmt.Printf("  Address:    http://%s\n", state.Addr)
	fmt.Printf("  Database:   %s\n", state.DBPath)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + state.Addr + "/v1/status") //nolint:noctx // short status check
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var status daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if status.LastPollAt.IsZero() {
		fmt.Println("  Last poll:  pending")
	} else {
		fmt.Printf("  Last poll:  %s (%d polls)\n", status.LastPollAt.Local().Format(time.RFC3339), status.PollCount)
	}
	fmt.Printf("  Window:     %s\n", status.Window)
	fmt.Printf("  Vehicles:   %d\n", len(status.Summary.Vehicles))
	fmt.Printf("  Cost:       %s\n", cli.FormatCost(status.Summary.TotalCost))
	fmt.Printf("  Alerts:     %d warning, %d critical\n", status.Summary.Warning, status.Summary.Critical)
	if status.LastError != "" {
		fmt.Printf("  Last error: %s\n", status.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	state, err := readDaemonState(flagDaemonState)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(state.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(state.PID) {
			_ = os.Remove(flagDaemonState)
			fmt.Printf("  Stopped daemon (pid %d)\n", state.PID)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", state.PID)
}

func ensureDaemonNotRunning(path string) error {
	state, err := readDaemonState(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(state.PID) {
		return fmt.Errorf("daemon already running (pid %d)", state.PID)
	}
	_ = os.Remove(path)
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeDaemonState(path string, st daemonState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readDaemonState(path string) (daemonState, error) {
	var st daemonState
	//nolint:gosec // state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("invalid daemon state in %s: %w", path, err)
	}
	if st.PID <= 0 {
		return st, fmt.Errorf("invalid pid in %s", path)
	}
	return st, nil
}
