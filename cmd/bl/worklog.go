package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
)

func newWorklogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worklog",
		Short: "Daily work log commands",
	}

	cmd.AddCommand(newWorklogAddCmd())
	cmd.AddCommand(newWorklogListCmd())
	return cmd
}

func newWorklogAddCmd() *cobra.Command {
	var (
		configPath string
		subTaskID  string
		step       string
		date       string
		rate       float64
		note       string
	)

	cmd := &cobra.Command{
		Use:   "add <item-id> <worker-id>",
		Short: "Record a day of work",
		Long: `Appends a work log: worker, item, date, daily rate. Logging the same
worker and date again appends a correction; the latest entry wins.
The rate defaults to the worker's daily rate. Rejected while the item
or sub-task is paused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorklogAdd(cmd, configPath, args[0], args[1], subTaskID, step, date, rate, note)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&subTaskID, "sub-task", "", "log against a sub-task")
	cmd.Flags().StringVar(&step, "step", "", "pipeline step performed")
	cmd.Flags().StringVar(&date, "date", "", "work date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "daily rate override")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func runWorklogAdd(cmd *cobra.Command, configPath, itemID, workerID, subTaskID, step, date string, rate float64, note string) error {
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

	if rate == 0 {
		var worker models.Worker
		if err := gormDB.First(&worker, "id = ?", workerID).Error; err != nil {
			return fmt.Errorf("load worker %s: %w", workerID, err)
		}
		rate = worker.DailyRate
	}

	log, err := process.LogWork(gormDB, process.LogOpts{
		ItemID:    itemID,
		SubTaskID: subTaskID,
		WorkerID:  workerID,
		Step:      step,
		Date:      day,
		DailyRate: rate,
		Note:      note,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s for %s (rate %s)\n",
		workerID, log.Date.Format("2006-01-02"), itemID, formatMoney(log.DailyRate))
	return nil
}

func newWorklogListCmd() *cobra.Command {
	var (
		configPath string
		itemID     string
		workerID   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work logs",
		Long:  "Lists work log entries, newest first. Corrections appear as separate rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorklogList(cmd, configPath, itemID, workerID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&itemID, "item", "", "filter by item")
	cmd.Flags().StringVar(&workerID, "worker", "", "filter by worker")
	return cmd
}

func runWorklogList(cmd *cobra.Command, configPath, itemID, workerID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	q := gormDB.Model(&models.WorkLog{}).Order("date DESC, id DESC").Limit(200)
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	if workerID != "" {
		q = q.Where("worker_id = ?", workerID)
	}
	var logs []models.WorkLog
	if err := q.Find(&logs).Error; err != nil {
		return fmt.Errorf("list work logs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(logs) == 0 {
		fmt.Fprintln(out, "No work logs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tWORKER\tITEM\tSUB-TASK\tSTEP\tRATE\tNOTE")
	for _, l := range logs {
		sub := "-"
		if l.SubTaskID != nil {
			sub = *l.SubTaskID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Date.Format("2006-01-02"), l.WorkerID, l.ItemID, sub, l.Step, formatMoney(l.DailyRate), l.Note)
	}
	return w.Flush()
}
