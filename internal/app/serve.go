package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/engine"
	"github.com/blackwell-systems/purrwatch/internal/notify"
	"github.com/blackwell-systems/purrwatch/internal/server"
	"github.com/blackwell-systems/purrwatch/internal/store"
)

var (
	serveLogFile string
	serveStop    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking daemon",
	Long: `Run the daemon that owns the tracker state. It serves the HTTP API and
the websocket channel for browser views on --addr, runs the periodic
recompute, rollover, popup and broadcast schedules, and stops cleanly on
SIGINT or SIGTERM.

Examples:
  purrwatch serve                                 # foreground on 127.0.0.1:7878
  purrwatch serve --log-file ~/.config/purrwatch/serve.log
  purrwatch serve --stop                          # stop a running daemon`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Append logs to this file instead of stderr")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop a running daemon")
	rootCmd.AddCommand(serveCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "serve.pid")
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("addr") {
		cfg.ListenAddr = flagAddr
	}

	if serveLogFile != "" {
		f, err := os.OpenFile(serveLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
	}

	if err := writePIDFile(); err != nil {
		return err
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()
	return serve(ctx, cfg)
}

func writePIDFile() error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file.
		_ = os.Remove(pidFilePath())
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// serve wires store, engine, scheduler and server and runs them until ctx
// is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config) error {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	// With desktop notifications off the fallback prints to stderr.
	hub := server.NewHub(notify.NewDesktop(cfg.Notify.Desktop))
	eng := engine.New(cfg, db, hub)

	sched, err := engine.NewScheduler(cfg.Schedule, eng)
	if err != nil {
		return err
	}
	srv := server.New(eng, hub)

	log.Printf("[serve] purrwatch %s, store %s", appVersion, cfg.DBPath)
	log.Printf("[serve] schedules: %s", strings.Join(sched.Names(), ", "))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx)
	})
	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.ListenAddr)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("[serve] stopped")
	return nil
}
