package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/split"
	"gorm.io/gorm"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split items into independently tracked sub-task groups",
	}

	cmd.AddCommand(newSplitDoCmd())
	cmd.AddCommand(newSplitAddCmd())
	cmd.AddCommand(newSplitRemoveCmd())
	cmd.AddCommand(newSplitResizeCmd())
	return cmd
}

func newSplitDoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "do <item-id> <quantities>",
		Short: "Split an item into quantity groups",
		Long: `Splits an item into sub-task groups, e.g. "bl split do it-1a2b3 6,4"
partitions a 10-unit item into groups of 6 and 4. Quantities must be
positive and sum to the item quantity. Each group inherits the item's
current pipeline step and is tracked independently from then on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := parseQuantities(args[1])
			if err != nil {
				return err
			}
			return runSplitDo(cmd, configPath, args[0], groups)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func parseQuantities(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	groups := make([]int, 0, len(parts))
	for _, p := range parts {
		q, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q (want comma-separated integers)", p)
		}
		groups = append(groups, q)
	}
	return groups, nil
}

func runSplitDo(cmd *cobra.Command, configPath, itemID string, groups []int) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	subs, err := split.Split(gormDB, itemID, groups)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Split %s into %d groups\n", itemID, len(subs))
	return printGroups(out, subs)
}

func newSplitAddCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Add a sub-task group to a split item",
		Long:  "Adds a new one-unit group, taking the unit from the largest existing group.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplitAdd(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runSplitAdd(cmd *cobra.Command, configPath, itemID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	st, err := split.AddGroup(gormDB, itemID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added group %s (qty 1) to %s\n", st.ID, itemID)
	return showGroups(cmd, gormDB, itemID)
}

func newSplitRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <sub-task-id>",
		Short: "Remove a sub-task group, merging its quantity into another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplitRemove(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runSplitRemove(cmd *cobra.Command, configPath, subTaskID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var st models.SubTask
	if err := gormDB.First(&st, "id = ?", subTaskID).Error; err != nil {
		return fmt.Errorf("load sub-task %s: %w", subTaskID, err)
	}

	if err := split.RemoveGroup(gormDB, subTaskID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed group %s\n", subTaskID)
	return showGroups(cmd, gormDB, st.ItemID)
}

func newSplitResizeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "resize <sub-task-id> <quantity>",
		Short: "Resize a sub-task group",
		Long: `Sets a group's quantity, transferring the difference from or to
another group so the item total never changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return runSplitResize(cmd, configPath, args[0], qty)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "benchline.yaml", "path to Benchline config file")
	return cmd
}

func runSplitResize(cmd *cobra.Command, configPath, subTaskID string, qty int) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var st models.SubTask
	if err := gormDB.First(&st, "id = ?", subTaskID).Error; err != nil {
		return fmt.Errorf("load sub-task %s: %w", subTaskID, err)
	}

	if err := split.ResizeGroup(gormDB, subTaskID, qty); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Resized group %s to %d\n", subTaskID, qty)
	return showGroups(cmd, gormDB, st.ItemID)
}

func showGroups(cmd *cobra.Command, gormDB *gorm.DB, itemID string) error {
	var subs []models.SubTask
	if err := gormDB.Where("item_id = ?", itemID).Order("position ASC").Find(&subs).Error; err != nil {
		return fmt.Errorf("load groups of %s: %w", itemID, err)
	}
	return printGroups(cmd.OutOrStdout(), subs)
}

func printGroups(out io.Writer, subs []models.SubTask) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUB-TASK\tQTY\tSTEP\tSTATUS\tWORKER")
	for _, st := range subs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", st.ID, st.Quantity, st.CurrentStep, st.Status, st.WorkerID)
	}
	return w.Flush()
}
