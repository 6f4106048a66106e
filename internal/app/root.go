// Package app contains the Cobra command tree for purrwatch.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/client"
	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagConfig  string
	flagAddr    string
)

var rootCmd = &cobra.Command{
	Use:   "purrwatch",
	Short: "A browser-habit tracker with a cat that reflects your day",
	Long: `purrwatch classifies the sites you visit as productive, unproductive or
neutral, accrues per-day time totals, and keeps a virtual cat whose health
follows the day's mix. A browser extension reports tab and focus events to
the daemon started by 'purrwatch serve'; every other command queries it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
			output.SetNoColor(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "purrwatch", appVersion)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Use a subcommand:")
		fmt.Fprintln(w, "  serve       Run the tracking daemon")
		fmt.Fprintln(w, "  status      Show the cat's health and happiness")
		fmt.Fprintln(w, "  stats       Show today's browsing totals and top sites")
		fmt.Fprintln(w, "  history     Show recent days")
		fmt.Fprintln(w, "  settings    Show or change the screen-time goal")
		fmt.Fprintln(w, "  categories  Manage productive and unproductive sites")
		fmt.Fprintln(w, "  mute        Silence popups for a day")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/purrwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", config.DefaultListenAddr, "Daemon address")
}

// daemonAddr is --addr when given, else listen_addr from the config file.
func daemonAddr(cmd *cobra.Command) string {
	if cmd.Flags().Changed("addr") {
		return flagAddr
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return flagAddr
	}
	return cfg.ListenAddr
}

func newClient(cmd *cobra.Command) *client.Client {
	return client.New(daemonAddr(cmd))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
