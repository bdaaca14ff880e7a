package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bl",
		Short: "Benchline — shop-floor production tracking",
		Long:  "Benchline tracks work orders through production pipelines, schedules them on a shared calendar and reconstructs day-by-day item histories.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newOrderCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newScheduleCmd())
	cmd.AddCommand(newWorklogCmd())
	cmd.AddCommand(newAttendanceCmd())
	cmd.AddCommand(newTimelineCmd())
	cmd.AddCommand(newReconcileCmd())
	cmd.AddCommand(newRecalcCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
