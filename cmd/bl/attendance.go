package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
)

func newAttendanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Worker attendance commands",
	}

	cmd.AddCommand(newAttendanceSetCmd())
	cmd.AddCommand(newAttendanceShowCmd())
	return cmd
}

func newAttendanceSetCmd() *cobra.Command {
	var (
		configPath string
		date       string
		note       string
	)

	cmd := &cobra.Command{
		Use:   "set <worker-id> <status>",
		Short: "Record a worker's attendance for a day",
		Long: `Records attendance: present, field, absent, sick, vacation or
weekend. Setting a day again appends a correction; the latest record
wins. Attendance is advisory — it never blocks assignments.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttendanceSet(cmd, configPath, args[0], args[1], date, note)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func runAttendanceSet(cmd *cobra.Command, configPath, workerID, status, date, note string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	day := models.DateOf(time.Now())
	if date != "" {
		day, err = parseDate(date)
		if err != nil {
			return err
		}
	}

	a, err := process.SetAttendance(gormDB, workerID, day, status, note)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s on %s\n", workerID, a.Status, a.Date.Format("2006-01-02"))
	return nil
}

func newAttendanceShowCmd() *cobra.Command {
	var (
		configPath string
		month      string
	)

	cmd := &cobra.Command{
		Use:   "show <worker-id>",
		Short: "Show a worker's attendance for a month",
		Long:  "Shows one record per day, corrections already collapsed to the latest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttendanceShow(cmd, configPath, args[0], month)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&month, "month", "", "month (YYYY-MM, default current)")
	return cmd
}

func runAttendanceShow(cmd *cobra.Command, configPath, workerID, month string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	year, m := now.Year(), now.Month()
	if month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q (want YYYY-MM)", month)
		}
		year, m = parsed.Year(), parsed.Month()
	}

	records, err := process.GetMonthlyAttendance(gormDB, workerID, year, m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "No attendance recorded for %s in %04d-%02d.\n", workerID, year, m)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSTATUS\tNOTE")
	for _, a := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Date.Format("2006-01-02"), a.Status, a.Note)
	}
	return w.Flush()
}
