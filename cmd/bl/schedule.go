package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/config"
	"github.com/zulandar/benchline/internal/notify"
	"github.com/zulandar/benchline/internal/schedule"
	"golang.org/x/term"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Calendar scheduling commands",
	}

	cmd.AddCommand(newScheduleSetCmd())
	cmd.AddCommand(newScheduleMoveCmd())
	cmd.AddCommand(newScheduleDragCmd())
	cmd.AddCommand(newScheduleClearCmd())
	cmd.AddCommand(newScheduleStartCmd())
	return cmd
}

func newScheduleSetCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "set <order-id> <start> <end>",
		Short: "Place an order on the calendar",
		Long: `Schedules an order over [start, end] (YYYY-MM-DD, both inclusive).
Worker double-bookings with other scheduled orders are reported and
nothing is written; confirm interactively or pass --force to commit
over them.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleWindow(cmd, configPath, args[0], args[1], args[2], force, false)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().BoolVar(&force, "force", false, "commit even when conflicts are reported")
	return cmd
}

func newScheduleMoveCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "move <order-id> <start> <end>",
		Short: "Move a scheduled order to a new window",
		Long: `Reschedules an order to [start, end]. Orders already in progress can
never be moved. Moving to the identical window is a no-op.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleWindow(cmd, configPath, args[0], args[1], args[2], force, true)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().BoolVar(&force, "force", false, "commit even when conflicts are reported")
	return cmd
}

// runScheduleWindow drives both set and move: run the operation, and on
// a conflict report either prompt (interactive) or require --force.
func runScheduleWindow(cmd *cobra.Command, configPath, orderID, startRaw, endRaw string, force, move bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	start, err := parseDate(startRaw)
	if err != nil {
		return err
	}
	end, err := parseDate(endRaw)
	if err != nil {
		return err
	}

	op := func(force bool) (*schedule.Result, error) {
		if move {
			return schedule.Reschedule(gormDB, orderID, start, end, force)
		}
		return schedule.Schedule(gormDB, orderID, start, end, force)
	}
	return applyWithConfirm(cmd, cfg, op, force)
}

func newScheduleDragCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "drag <order-id> <drop-date>",
		Short: "Shift a scheduled order to start on a new date",
		Long:  "Moves the whole planned window so it starts on drop-date, keeping its length.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleDrag(cmd, configPath, args[0], args[1], force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().BoolVar(&force, "force", false, "commit even when conflicts are reported")
	return cmd
}

func runScheduleDrag(cmd *cobra.Command, configPath, orderID, dropRaw string, force bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	drop, err := parseDate(dropRaw)
	if err != nil {
		return err
	}

	op := func(force bool) (*schedule.Result, error) {
		return schedule.DragReschedule(gormDB, orderID, drop, force)
	}
	return applyWithConfirm(cmd, cfg, op, force)
}

// applyWithConfirm runs a scheduling operation and handles the conflict
// protocol: print the report, then prompt y/N when stdin is a terminal
// or demand --force when it is not. A forced apply over conflicts emits
// a notification.
func applyWithConfirm(cmd *cobra.Command, cfg *config.Config, op func(force bool) (*schedule.Result, error), force bool) error {
	out := cmd.OutOrStdout()

	res, err := op(force)
	if err != nil {
		return err
	}

	if !res.Applied {
		printConflicts(out, res.Conflicts)

		if !isInteractive() {
			fmt.Fprintln(out, "Not applied. Re-run with --force to commit over these conflicts.")
			return nil
		}
		fmt.Fprint(out, "Schedule anyway? [y/N]: ")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
			fmt.Fprintln(out, "Not applied.")
			return nil
		}

		res, err = op(true)
		if err != nil {
			return err
		}
	}

	o := res.Order
	fmt.Fprintf(out, "Order %s scheduled %s\n", o.ID, formatWindow(o.PlannedStart, o.PlannedEnd))
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}

	if len(res.Conflicts) > 0 {
		fmt.Fprintf(out, "Committed over %d conflict(s).\n", len(res.Conflicts))
		sendNotification(cmd, cfg, "warning",
			fmt.Sprintf("Order %s scheduled over conflicts", o.ID),
			fmt.Sprintf("%d worker double-booking(s) were overridden for %s", len(res.Conflicts), formatWindow(o.PlannedStart, o.PlannedEnd)),
			conflictFields(res.Conflicts)...)
	}
	return nil
}

// isInteractive reports whether stdin is a terminal, so a human can be
// prompted instead of failing the run.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func printConflicts(out io.Writer, conflicts []schedule.WorkerConflict) {
	fmt.Fprintf(out, "Found %d scheduling conflict(s):\n", len(conflicts))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tNAME\tORDER\tTITLE\tOVERLAP")
	for _, c := range conflicts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s..%s\n",
			c.WorkerID, c.WorkerName, c.OrderID, c.OrderTitle,
			c.OverlapStart.Format("2006-01-02"), c.OverlapEnd.Format("2006-01-02"))
	}
	w.Flush()
}

func conflictFields(conflicts []schedule.WorkerConflict) []notify.Field {
	fields := make([]notify.Field, 0, len(conflicts))
	for _, c := range conflicts {
		fields = append(fields, notify.Field{
			Name: c.WorkerID,
			Value: fmt.Sprintf("%s %s..%s", c.OrderID,
				c.OverlapStart.Format("2006-01-02"), c.OverlapEnd.Format("2006-01-02")),
		})
	}
	return fields
}

func newScheduleClearCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "clear <order-id>",
		Short: "Take an order off the calendar",
		Long:  "Removes the planned window. Orders already in progress cannot be unscheduled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleClear(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runScheduleClear(cmd *cobra.Command, configPath, orderID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	o, err := schedule.Unschedule(gormDB, orderID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Order %s unscheduled (now %s)\n", o.ID, o.Status)
	return nil
}

func newScheduleStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start <order-id>",
		Short: "Start production on a scheduled order",
		Long: `Marks a scheduled order in progress. From then on it is pinned to its
window: it cannot be moved or unscheduled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleStart(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runScheduleStart(cmd *cobra.Command, configPath, orderID string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	o, err := schedule.Start(gormDB, orderID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Order %s started (%s)\n", o.ID, formatWindow(o.PlannedStart, o.PlannedEnd))

	sendNotification(cmd, cfg, "success",
		fmt.Sprintf("Order %s started", o.ID),
		fmt.Sprintf("%s is in production through %s", o.Title, formatDate(o.PlannedEnd)))
	return nil
}
