package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/db"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Worker management commands",
	}

	cmd.AddCommand(newWorkerAddCmd())
	cmd.AddCommand(newWorkerListCmd())
	return cmd
}

func newWorkerAddCmd() *cobra.Command {
	var (
		configPath string
		id         string
		role       string
		rate       float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a worker",
		Long:  "Adds a worker, or updates the existing record when --id matches one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkerAdd(cmd, configPath, id, args[0], role, rate)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&id, "id", "", "worker ID (generated when empty)")
	cmd.Flags().StringVar(&role, "role", "", "worker role")
	cmd.Flags().Float64Var(&rate, "rate", 0, "daily labor rate")
	return cmd
}

func runWorkerAdd(cmd *cobra.Command, configPath, id, name, role string, rate float64) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if id == "" {
		id, err = process.GenerateID("w")
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
	}

	w := models.Worker{ID: id, Name: name, Role: role, DailyRate: rate, Active: true}
	if err := db.SeedWorker(gormDB, w); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Worker %s (%s) saved\n", w.ID, w.Name)
	return nil
}

func newWorkerListCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkerList(cmd, configPath, all)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().BoolVar(&all, "all", false, "include inactive workers")
	return cmd
}

func runWorkerList(cmd *cobra.Command, configPath string, all bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	q := gormDB.Model(&models.Worker{}).Order("id ASC")
	if !all {
		q = q.Where("active = ?", true)
	}
	var workers []models.Worker
	if err := q.Find(&workers).Error; err != nil {
		return fmt.Errorf("list workers: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(workers) == 0 {
		fmt.Fprintln(out, "No workers found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tRATE\tACTIVE")
	for _, wk := range workers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", wk.ID, wk.Name, wk.Role, formatMoney(wk.DailyRate), wk.Active)
	}
	return w.Flush()
}
