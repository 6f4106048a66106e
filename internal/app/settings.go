package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/output"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

var settingsGoal time.Duration

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the daily screen-time goal",
	Example: `  purrwatch settings
  purrwatch settings --goal 3h30m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)
		ctx := cmd.Context()
		if cmd.Flags().Changed("goal") {
			if settingsGoal <= 0 {
				return fmt.Errorf("--goal must be positive, got %s", settingsGoal)
			}
			goal := tracker.Millis(settingsGoal)
			if err := c.UpdateSettings(ctx, tracker.SettingsUpdate{ScreenTimeGoal: &goal}); err != nil {
				return err
			}
		}
		s, err := c.Settings(ctx)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(w, s)
		}
		fmt.Fprintln(w, output.Section("Settings"))
		fmt.Fprintln(w, output.Metric("Screen-time goal", tracker.FormatDuration(s.ScreenTimeGoal.Duration())))
		fmt.Fprintln(w, output.Metric("Productive sites", strconv.Itoa(len(s.WebsiteCategories.Productive))))
		fmt.Fprintln(w, output.Metric("Unproductive sites", strconv.Itoa(len(s.WebsiteCategories.Unproductive))))
		return nil
	},
}

func init() {
	settingsCmd.Flags().DurationVar(&settingsGoal, "goal", 0, "New daily screen-time goal (e.g. 4h)")
	rootCmd.AddCommand(settingsCmd)
}
