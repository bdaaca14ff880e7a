package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/timeline"
)

func newTimelineCmd() *cobra.Command {
	var (
		configPath string
		today      string
	)

	cmd := &cobra.Command{
		Use:   "timeline <item-id>",
		Short: "Reconstruct an item's day-by-day history",
		Long: `Rebuilds the complete, gap-free day history of an item from its work
logs, attendance records and pause periods: who worked each day, what
each day cost, and why nothing happened on the empty ones. The same
records always reconstruct the same timeline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, configPath, args[0], today)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&today, "today", "", "reconstruction horizon (YYYY-MM-DD, default today)")
	return cmd
}

func runTimeline(cmd *cobra.Command, configPath, itemID, todayRaw string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	today := models.DateOf(time.Now())
	if todayRaw != "" {
		today, err = parseDate(todayRaw)
		if err != nil {
			return err
		}
	}

	tl, err := timeline.Reconstruct(gormDB, itemID, today, cfg.HolidaySet())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Timeline for %s: %s to %s\n\n", tl.ItemID,
		tl.Start.Format("2006-01-02"), tl.End.Format("2006-01-02"))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tTYPE\tEVENTS\tCOST\tCUMULATIVE")
	for _, d := range tl.Days {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Date.Format("2006-01-02"), d.Date.Weekday().String()[:3], d.Type,
			formatEntries(d.Entries), formatMoney(d.DailyLaborCost), formatMoney(d.CumulativeLaborCost))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := timeline.ComputeStats(tl)
	fmt.Fprintf(out, "\n%d days: %d working, %d paused. Labor cost %s.\n",
		stats.TotalDays, stats.WorkingDays, stats.PausedDays, formatMoney(stats.TotalLaborCost))
	return nil
}

// formatEntries renders a day's entries as a compact comma list.
func formatEntries(entries []timeline.Entry) string {
	if len(entries) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case timeline.EntryWorker:
			parts = append(parts, fmt.Sprintf("%s(%s)", e.WorkerID, e.Step))
		case timeline.EntryAbsentWorker:
			parts = append(parts, fmt.Sprintf("%s absent:%s", e.WorkerID, e.Status))
		case timeline.EntryPauseStart:
			parts = append(parts, "pause starts: "+e.Detail)
		case timeline.EntryPauseEnd:
			parts = append(parts, "pause ends")
		case timeline.EntryMaterialReceived:
			parts = append(parts, "material: "+e.Detail)
		}
	}
	return strings.Join(parts, ", ")
}
