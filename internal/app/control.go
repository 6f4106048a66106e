package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/server"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

var (
	eventTab      int
	popupHealth   float64
	popupCooldown time.Duration
)

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Silence the health popup for the configured mute duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient(cmd).Mute(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		until := res.MutedUntil
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			until = t.Local().Format("Mon 15:04")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Popups muted until %s\n", until)
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the current popup and restart its cooldown",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).DismissPopup(cmd.Context())
	},
}

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Change the popup health threshold or cooldown",
	Long: `Change when the health popup appears. The popup shows once health drops
below the threshold, at most once per cooldown. Changes last until the
daemon restarts; set popup.health_threshold and popup.cooldown in the
config file to keep them.`,
	Example: `  purrwatch popup --health 40
  purrwatch popup --cooldown 30m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var u tracker.PopupUpdate
		if cmd.Flags().Changed("health") {
			u.HealthThreshold = &popupHealth
		}
		if cmd.Flags().Changed("cooldown") {
			cooldown := tracker.Millis(popupCooldown)
			u.Cooldown = &cooldown
		}
		if u.HealthThreshold == nil && u.Cooldown == nil {
			return fmt.Errorf("nothing to change: pass --health or --cooldown")
		}
		if err := newClient(cmd).UpdatePopupThresholds(cmd.Context(), u); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "popup rules updated")
		return nil
	},
}

// The event commands stand in for a browser extension when scripting or testing.
var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Send a browsing event to the daemon",
}

var eventActivateCmd = &cobra.Command{
	Use:   "activate <url>",
	Short: "Report that a tab became active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).Event(cmd.Context(), server.TypeTabActivated, eventTab, args[0])
	},
}

var eventNavigateCmd = &cobra.Command{
	Use:   "navigate <url>",
	Short: "Report a completed top-level navigation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).Event(cmd.Context(), server.TypeNavigationCompleted, eventTab, args[0])
	},
}

var eventFocusCmd = &cobra.Command{
	Use:   "focus [url]",
	Short: "Report that the browser regained focus",
	Long:  "Report that the browser regained focus. Without a url the tab resumes the domain it last showed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := ""
		if len(args) == 1 {
			url = args[0]
		}
		return newClient(cmd).Event(cmd.Context(), server.TypeFocusGained, eventTab, url)
	},
}

var eventBlurCmd = &cobra.Command{
	Use:   "blur",
	Short: "Report that the browser lost focus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).Event(cmd.Context(), server.TypeFocusLost, 0, "")
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Force periodic work to run now",
}

var debugCheckCmd = &cobra.Command{
	Use:   "check-thresholds",
	Short: "Run the popup check and show the decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newClient(cmd).CheckThresholds(cmd.Context())
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), d)
		}
		if d.Show {
			fmt.Fprintln(cmd.OutOrStdout(), "popup shown")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "no popup: %s\n", d.Reason)
		return nil
	},
}

var debugResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Archive today and start a fresh day",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient(cmd).MidnightReset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "day reset")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{eventActivateCmd, eventNavigateCmd, eventFocusCmd} {
		c.Flags().IntVar(&eventTab, "tab", 1, "Browser tab id")
	}
	eventCmd.AddCommand(eventActivateCmd, eventNavigateCmd, eventFocusCmd, eventBlurCmd)
	debugCmd.AddCommand(debugCheckCmd, debugResetCmd)
	popupCmd.Flags().Float64Var(&popupHealth, "health", 0, "Show the popup when health drops below this (0-100)")
	popupCmd.Flags().DurationVar(&popupCooldown, "cooldown", 0, "Minimum time between popups")
	rootCmd.AddCommand(muteCmd, dismissCmd, popupCmd, eventCmd, debugCmd)
}
