package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/config"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/reconcile"
	"gorm.io/gorm"
)

func newReconcileCmd() *cobra.Command {
	var (
		configPath string
		today      string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile [worker-id]",
		Short: "Backfill missing work logs",
		Long: `Creates the work logs that should exist but were never entered: one
per working day of every in-progress assignment or sub-task, skipping
weekends, holidays and paused days. Already-logged days are left
untouched, so reconciliation is safe to repeat.

Without a worker ID, all active workers are reconciled. With --watch,
runs on the cron schedule from config until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerID := ""
			if len(args) == 1 {
				workerID = args[0]
			}
			return runReconcile(cmd, configPath, workerID, today, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&today, "today", "", "reconciliation horizon (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&watch, "watch", false, "run periodically on the configured cron schedule")
	return cmd
}

func runReconcile(cmd *cobra.Command, configPath, workerID, todayRaw string, watch bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	horizon := func() (time.Time, error) {
		if todayRaw != "" {
			return parseDate(todayRaw)
		}
		return models.DateOf(time.Now()), nil
	}

	if !watch {
		today, err := horizon()
		if err != nil {
			return err
		}
		return reconcileOnce(cmd, cfg, gormDB, workerID, today)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching on schedule %q. Ctrl-C to stop.\n", cfg.Reconcile.Cron)

	for {
		wait := reconcile.NextRunDuration(cfg.Reconcile.Cron, time.Now())
		if wait <= 0 {
			return fmt.Errorf("invalid cron expression %q", cfg.Reconcile.Cron)
		}
		fmt.Fprintf(out, "Next run in %s\n", wait.Round(time.Second))

		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, stopping.\n", sig)
			return nil
		case <-time.After(wait):
		}

		today, err := horizon()
		if err != nil {
			return err
		}
		if err := reconcileOnce(cmd, cfg, gormDB, workerID, today); err != nil {
			fmt.Fprintf(out, "Reconciliation failed: %v\n", err)
		}
	}
}

// reconcileOnce runs one reconciliation pass for one worker, or for
// every active worker when workerID is empty.
func reconcileOnce(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB, workerID string, today time.Time) error {
	out := cmd.OutOrStdout()
	holidays := cfg.HolidaySet()

	workerIDs := []string{workerID}
	if workerID == "" {
		var workers []models.Worker
		if err := gormDB.Where("active = ?", true).Order("id ASC").Find(&workers).Error; err != nil {
			return fmt.Errorf("list workers: %w", err)
		}
		workerIDs = workerIDs[:0]
		for _, w := range workers {
			workerIDs = append(workerIDs, w.ID)
		}
	}

	total := 0
	for _, id := range workerIDs {
		res, err := reconcile.WorkLogs(gormDB, id, today, holidays)
		if err != nil {
			return err
		}
		if res.Created > 0 {
			fmt.Fprintf(out, "%s: %s\n", id, res.Message)
		}
		total += res.Created
	}
	fmt.Fprintf(out, "Reconciled %d worker(s), created %d work log(s)\n", len(workerIDs), total)
	return nil
}

func newRecalcCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "recalc <order-id>",
		Short: "Recalculate an order's cost, price and profit",
		Long: `Recomputes totals from the work logs (corrections collapsed to the
latest entry) and material costs, then stores them on the order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecalc(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runRecalc(cmd *cobra.Command, configPath, orderID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	o, err := reconcile.Order(gormDB, orderID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Order %s: cost %s, price %s, profit %s\n",
		o.ID, formatMoney(o.TotalCost), formatMoney(o.TotalPrice), formatMoney(o.Profit))
	return nil
}
