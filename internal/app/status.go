package app

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/mcp"
	"github.com/blackwell-systems/purrwatch/internal/output"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

const barWidth = 20

var historyDays int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cat's health and happiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		pet, err := newClient(cmd).Status(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(w, pet)
		}
		renderPet(w, pet)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's browsing totals and top sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient(cmd).Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(w, snap)
		}
		renderSnapshot(w, snap)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent days, newest first",
	Long: `Show one row per day for the last --days days (1 to 30), newest first.
Today's row is built from the live totals and marked with *.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDays < 1 || historyDays > 30 {
			return fmt.Errorf("--days must be between 1 and 30, got %d", historyDays)
		}
		days, err := newClient(cmd).History(cmd.Context(), historyDays)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if flagJSON {
			return writeJSON(w, days)
		}
		renderHistory(w, days)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", tracker.DefaultHistoryDays, "Number of days to show")
	rootCmd.AddCommand(statusCmd, statsCmd, historyCmd)
}

func renderPet(w io.Writer, pet tracker.PetState) {
	fmt.Fprintln(w, output.Section("Cat"))
	fmt.Fprintln(w, output.Metric("Health", output.HealthBar(pet.Health, barWidth)))
	fmt.Fprintln(w, output.Metric("Happiness", output.HealthBar(pet.Happiness, barWidth)))
	fmt.Fprintln(w, output.Metric("Mood", mcp.Mood(pet.Health)))
}

func renderSnapshot(w io.Writer, snap tracker.StatsSnapshot) {
	renderPet(w, tracker.PetState{Health: float64(snap.Health), Happiness: float64(snap.Happiness)})
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.Section("Today "+snap.Date))
	fmt.Fprintln(w, output.Metric("Productive", output.StyleSuccess.Render(snap.ProductiveTime)))
	fmt.Fprintln(w, output.Metric("Unproductive", output.StyleError.Render(snap.UnproductiveTime)))
	fmt.Fprintln(w, output.Metric("Neutral", snap.NeutralTime))
	fmt.Fprintln(w, output.Metric("Total", snap.TotalTime+" of "+snap.ScreenTimeGoal))
	fmt.Fprintln(w, output.Metric("Productivity", fmt.Sprintf("%d%%", snap.ProductivityScore)))
	fmt.Fprintln(w, output.Metric("Target health", strconv.Itoa(snap.TargetHealth)))
	if snap.CurrentDomain != "" {
		fmt.Fprintln(w, output.Metric("Current", fmt.Sprintf("%s (%s, %s)",
			snap.CurrentDomain, output.CategoryStyle(string(snap.CurrentCategory)).Render(string(snap.CurrentCategory)), snap.SessionDuration)))
	}
	if snap.Muted {
		fmt.Fprintln(w, output.Metric("Popups", output.StyleMuted.Render("muted")))
	}

	if len(snap.Websites) == 0 {
		return
	}
	fmt.Fprintln(w)
	tbl := output.NewTable("Site", "Category", "Time", "Visits").AlignRight(2, 3)
	for _, site := range snap.Websites {
		tbl.AddRow(site.Domain,
			output.CategoryStyle(string(site.Category)).Render(string(site.Category)),
			site.TimeFormatted,
			strconv.Itoa(site.Visits))
	}
	tbl.Print(w)
}

func renderHistory(w io.Writer, days []tracker.DayRecord) {
	tbl := output.NewTable("Date", "Productive", "Unproductive", "Neutral", "Score", "Health", "").AlignRight(1, 2, 3, 4, 5)
	for i, d := range days {
		date := d.Date
		if d.InProgress {
			date += "*"
		}
		// Rows are newest first; compare against the day before.
		delta := ""
		if i+1 < len(days) {
			delta = output.DeltaArrow(d.Health - days[i+1].Health)
		}
		tbl.AddRow(date,
			tracker.FormatDuration(d.Productive.Duration()),
			tracker.FormatDuration(d.Unproductive.Duration()),
			tracker.FormatDuration(d.Neutral.Duration()),
			fmt.Sprintf("%d%%", d.ProductivityScore),
			output.ScoreStyle(d.Health).Render(strconv.Itoa(int(math.Round(d.Health)))),
			delta)
	}
	tbl.Print(w)
}
