package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/order"
	"github.com/zulandar/benchline/internal/process"
)

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Work order management commands",
	}

	cmd.AddCommand(newOrderCreateCmd())
	cmd.AddCommand(newOrderListCmd())
	cmd.AddCommand(newOrderShowCmd())
	cmd.AddCommand(newOrderAssignCmd())
	cmd.AddCommand(newOrderStatusCmd())
	cmd.AddCommand(newOrderPauseCmd())
	cmd.AddCommand(newOrderResumeCmd())
	cmd.AddCommand(newOrderMaterialCmd())
	return cmd
}

func newOrderCreateCmd() *cobra.Command {
	var (
		configPath string
		title      string
		customer   string
		steps      []string
		items      []string
		due        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new work order",
		Long: `Creates a work order with its pipeline steps and product items.
Items are given as product:quantity[:unit-price], e.g. --item table:10:120.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderCreate(cmd, configPath, title, customer, steps, items, due)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&title, "title", "", "order title (required)")
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	cmd.Flags().StringSliceVar(&steps, "step", nil, "pipeline step, in order (repeatable, required)")
	cmd.Flags().StringSliceVar(&items, "item", nil, "item as product:quantity[:unit-price] (repeatable)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("step")
	return cmd
}

func runOrderCreate(cmd *cobra.Command, configPath, title, customer string, steps, items []string, due string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	opts := order.CreateOpts{Title: title, Customer: customer, Steps: steps}
	if due != "" {
		d, err := parseDate(due)
		if err != nil {
			return err
		}
		opts.DueDate = &d
	}
	for _, raw := range items {
		spec, err := parseItemSpec(raw)
		if err != nil {
			return err
		}
		opts.Items = append(opts.Items, spec)
	}

	o, err := order.Create(gormDB, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created order %s\n", o.ID)
	fmt.Fprintf(out, "Pipeline: %s\n", strings.Join(o.StepList(), " > "))
	for _, it := range o.Items {
		fmt.Fprintf(out, "Item %s: %s x%d\n", it.ID, it.Product, it.Quantity)
	}
	return nil
}

// parseItemSpec parses product:quantity[:unit-price].
func parseItemSpec(raw string) (order.ItemSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return order.ItemSpec{}, fmt.Errorf("invalid item %q (want product:quantity[:unit-price])", raw)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return order.ItemSpec{}, fmt.Errorf("invalid item quantity in %q", raw)
	}
	spec := order.ItemSpec{Product: parts[0], Quantity: qty}
	if len(parts) == 3 {
		price, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return order.ItemSpec{}, fmt.Errorf("invalid item unit price in %q", raw)
		}
		spec.UnitPrice = price
	}
	return spec, nil
}

func newOrderListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		customer   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderList(cmd, configPath, order.ListFilters{Status: status, Customer: customer})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&customer, "customer", "", "filter by customer")
	return cmd
}

func runOrderList(cmd *cobra.Command, configPath string, filters order.ListFilters) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	orders, err := order.List(gormDB, filters)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCUSTOMER\tSTATUS\tWINDOW\tITEMS\tDUE")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			o.ID, o.Title, o.Customer, o.Status,
			formatWindow(o.PlannedStart, o.PlannedEnd), len(o.Items), formatDate(o.DueDate))
	}
	return w.Flush()
}

func newOrderShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show a work order with items and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runOrderShow(cmd *cobra.Command, configPath, orderID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	o, err := order.Get(gormDB, orderID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Order %s: %s\n", o.ID, o.Title)
	if o.Customer != "" {
		fmt.Fprintf(out, "Customer: %s\n", o.Customer)
	}
	fmt.Fprintf(out, "Status: %s\n", o.Status)
	fmt.Fprintf(out, "Pipeline: %s\n", strings.Join(o.StepList(), " > "))
	if o.IsScheduled {
		fmt.Fprintf(out, "Scheduled: %s\n", formatWindow(o.PlannedStart, o.PlannedEnd))
	}
	if o.DueDate != nil {
		fmt.Fprintf(out, "Due: %s\n", formatDate(o.DueDate))
	}
	fmt.Fprintf(out, "Cost: %s  Price: %s  Profit: %s\n",
		formatMoney(o.TotalCost), formatMoney(o.TotalPrice), formatMoney(o.Profit))

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tMODE\tSTATUS\tAT")
	for i := range o.Items {
		it := &o.Items[i]
		mode, at := "legacy", "-"
		switch m := it.Mode().(type) {
		case models.SplitMode:
			mode = "split"
			at = fmt.Sprintf("%d groups", len(m.SubTasks))
		case models.LegacyMode:
			if cur := process.CurrentAssignment(it); cur != nil {
				at = cur.Step
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			it.ID, it.Product, it.Quantity, mode, process.ItemStatus(it), at)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		if m, ok := it.Mode().(models.SplitMode); ok {
			fmt.Fprintf(out, "\nSub-tasks of %s:\n", it.ID)
			sw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(sw, "SUB-TASK\tQTY\tSTEP\tSTATUS\tWORKER")
			for _, st := range m.SubTasks {
				fmt.Fprintf(sw, "%s\t%d\t%s\t%s\t%s\n",
					st.ID, st.Quantity, st.CurrentStep, st.Status, st.WorkerID)
			}
			if err := sw.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func newOrderAssignCmd() *cobra.Command {
	var (
		configPath string
		step       string
		subTaskID  string
		helpers    []string
	)

	cmd := &cobra.Command{
		Use:   "assign <item-id> <worker-id>",
		Short: "Assign a worker to an item stage or sub-task",
		Long: `Assigns a worker to the given stage of a legacy item, or to a
sub-task with --sub-task. An attendance warning is advisory: the
assignment is recorded either way.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderAssign(cmd, configPath, args[0], args[1], step, subTaskID, helpers)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&step, "step", "", "pipeline step to assign (legacy mode)")
	cmd.Flags().StringVar(&subTaskID, "sub-task", "", "sub-task ID to assign (split mode)")
	cmd.Flags().StringSliceVar(&helpers, "helper", nil, "helper worker ID (repeatable)")
	return cmd
}

func runOrderAssign(cmd *cobra.Command, configPath, itemID, workerID, step, subTaskID string, helpers []string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	today := models.DateOf(time.Now())
	out := cmd.OutOrStdout()

	var avail process.Availability
	if subTaskID != "" {
		_, avail, err = process.AssignSubTaskWorker(gormDB, subTaskID, workerID, helpers, today)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Assigned %s to sub-task %s\n", workerID, subTaskID)
	} else {
		if step == "" {
			return fmt.Errorf("either --step or --sub-task is required")
		}
		_, avail, err = process.AssignStepWorker(gormDB, itemID, step, workerID, helpers, today)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Assigned %s to %s/%s\n", workerID, itemID, step)
	}

	if !avail.Allowed {
		fmt.Fprintf(out, "Warning: %s\n", avail.Reason)
	}
	return nil
}

func newOrderStatusCmd() *cobra.Command {
	var (
		configPath string
		step       string
		subTaskID  string
	)

	cmd := &cobra.Command{
		Use:   "status <item-id> <status>",
		Short: "Set the status of an item stage or sub-task",
		Long: `Moves a stage assignment (--step) or a sub-task (--sub-task) to the
given status: pending, in_progress, done or deferred. Completing the
last stage of an item stamps the item completed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderStatus(cmd, configPath, args[0], args[1], step, subTaskID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&step, "step", "", "pipeline step (legacy mode)")
	cmd.Flags().StringVar(&subTaskID, "sub-task", "", "sub-task ID (split mode)")
	return cmd
}

func runOrderStatus(cmd *cobra.Command, configPath, itemID, status, step, subTaskID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	now := time.Now()
	out := cmd.OutOrStdout()

	if subTaskID != "" {
		st, err := process.SetSubTaskStatus(gormDB, subTaskID, status, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sub-task %s is now %s\n", st.ID, st.Status)
		return nil
	}
	if step == "" {
		return fmt.Errorf("either --step or --sub-task is required")
	}
	a, err := process.SetAssignmentStatus(gormDB, itemID, step, status, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s/%s is now %s\n", itemID, a.Step, a.Status)
	return nil
}

func newOrderPauseCmd() *cobra.Command {
	var (
		configPath string
		subTaskID  string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "pause <item-id>",
		Short: "Pause work on an item or sub-task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderPause(cmd, configPath, args[0], subTaskID, reason)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&subTaskID, "sub-task", "", "pause a single sub-task instead")
	cmd.Flags().StringVar(&reason, "reason", "", "why work is paused")
	return cmd
}

func runOrderPause(cmd *cobra.Command, configPath, itemID, subTaskID, reason string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	now := time.Now()
	out := cmd.OutOrStdout()

	target := itemID
	if subTaskID != "" {
		if _, err := process.PauseSubTask(gormDB, subTaskID, reason, now); err != nil {
			return err
		}
		target = subTaskID
	} else {
		if _, err := process.PauseItem(gormDB, itemID, reason, now); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Paused %s\n", target)

	sendNotification(cmd, cfg, "warning", fmt.Sprintf("Work paused on %s", target), reason)
	return nil
}

func newOrderResumeCmd() *cobra.Command {
	var (
		configPath string
		subTaskID  string
	)

	cmd := &cobra.Command{
		Use:   "resume <item-id>",
		Short: "Resume paused work on an item or sub-task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderResume(cmd, configPath, args[0], subTaskID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().StringVar(&subTaskID, "sub-task", "", "resume a single sub-task instead")
	return cmd
}

func runOrderResume(cmd *cobra.Command, configPath, itemID, subTaskID string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	now := time.Now()
	out := cmd.OutOrStdout()

	target := itemID
	if subTaskID != "" {
		if _, err := process.ResumeSubTask(gormDB, subTaskID, now); err != nil {
			return err
		}
		target = subTaskID
	} else {
		if _, err := process.ResumeItem(gormDB, itemID, now); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Resumed %s\n", target)

	sendNotification(cmd, cfg, "success", fmt.Sprintf("Work resumed on %s", target), "")
	return nil
}

func newOrderMaterialCmd() *cobra.Command {
	var (
		configPath string
		quantity   float64
		unitCost   float64
		received   string
	)

	cmd := &cobra.Command{
		Use:   "material <order-id> <name>",
		Short: "Record a purchased material against an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderMaterial(cmd, configPath, args[0], args[1], quantity, unitCost, received)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	cmd.Flags().Float64Var(&quantity, "quantity", 1, "material quantity")
	cmd.Flags().Float64Var(&unitCost, "unit-cost", 0, "cost per unit")
	cmd.Flags().StringVar(&received, "received", "", "date received (YYYY-MM-DD)")
	return cmd
}

func runOrderMaterial(cmd *cobra.Command, configPath, orderID, name string, quantity, unitCost float64, received string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var receivedAt *time.Time
	if received != "" {
		d, err := parseDate(received)
		if err != nil {
			return err
		}
		receivedAt = &d
	}

	m, err := order.AddMaterial(gormDB, orderID, name, quantity, unitCost, receivedAt)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded material %q (%.2f x %s) on %s\n",
		m.Name, m.Quantity, formatMoney(m.UnitCost), orderID)
	return nil
}
