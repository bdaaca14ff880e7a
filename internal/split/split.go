// Package split partitions an item's quantity into independently
// tracked sub-tasks. Every operation preserves the invariant that the
// sub-task quantities sum to the item quantity.
package split

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
	"gorm.io/gorm"
)

var (
	// ErrInvalidPartition rejects partitions that do not have at least
	// two groups of at least one unit summing to the item quantity.
	ErrInvalidPartition = errors.New("split: invalid partition")
	// ErrNotSplit rejects group operations on an item with no sub-tasks.
	ErrNotSplit = errors.New("split: item is not split")
	// ErrGroupTooSmall rejects changes that would drop a group below one unit.
	ErrGroupTooSmall = errors.New("split: group cannot drop below one unit")
)

// Split replaces the item's sub-tasks with one per group quantity. Each
// new sub-task inherits the item's current stage and starts pending.
// The item is left unmodified on any validation failure.
func Split(db *gorm.DB, itemID string, groups []int) ([]models.SubTask, error) {
	var item models.Item
	if err := db.Preload("Order").Preload("Assignments").Preload("SubTasks").First(&item, "id = ?", itemID).Error; err != nil {
		return nil, fmt.Errorf("split: load item %s: %w", itemID, err)
	}

	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 groups, got %d", ErrInvalidPartition, len(groups))
	}
	sum := 0
	for _, q := range groups {
		if q < 1 {
			return nil, fmt.Errorf("%w: group quantity %d below 1", ErrInvalidPartition, q)
		}
		sum += q
	}
	if sum != item.Quantity {
		return nil, fmt.Errorf("%w: groups sum to %d, item quantity is %d", ErrInvalidPartition, sum, item.Quantity)
	}

	step := currentStep(&item)

	var created []models.SubTask
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(item.SubTasks) > 0 {
			if err := tx.Where("item_id = ?", itemID).Delete(&models.SubTask{}).Error; err != nil {
				return fmt.Errorf("split: drop previous sub-tasks: %w", err)
			}
		}
		for i, q := range groups {
			id, err := process.GenerateID("st")
			if err != nil {
				return err
			}
			st := models.SubTask{
				ID:          id,
				ItemID:      itemID,
				Quantity:    q,
				Position:    i,
				CurrentStep: step,
				Status:      models.StatusPending,
			}
			if err := tx.Create(&st).Error; err != nil {
				return fmt.Errorf("split: create sub-task: %w", err)
			}
			created = append(created, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddGroup moves one unit from the currently-largest group into a new
// group of size one. Fails when the largest group has only one unit.
func AddGroup(db *gorm.DB, itemID string) (*models.SubTask, error) {
	subs, err := loadGroups(db, itemID)
	if err != nil {
		return nil, err
	}

	largest := &subs[0]
	for i := range subs {
		if subs[i].Quantity > largest.Quantity {
			largest = &subs[i]
		}
	}
	if largest.Quantity <= 1 {
		return nil, fmt.Errorf("%w: largest group has one unit", ErrGroupTooSmall)
	}

	id, err := process.GenerateID("st")
	if err != nil {
		return nil, err
	}
	st := models.SubTask{
		ID:          id,
		ItemID:      itemID,
		Quantity:    1,
		Position:    subs[len(subs)-1].Position + 1,
		CurrentStep: largest.CurrentStep,
		Status:      models.StatusPending,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SubTask{}).Where("id = ?", largest.ID).
			Update("quantity", largest.Quantity-1).Error; err != nil {
			return fmt.Errorf("split: shrink group %s: %w", largest.ID, err)
		}
		if err := tx.Create(&st).Error; err != nil {
			return fmt.Errorf("split: create group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// RemoveGroup deletes a group and merges its quantity into the first
// remaining group, so total quantity never drifts.
func RemoveGroup(db *gorm.DB, subTaskID string) error {
	var st models.SubTask
	if err := db.First(&st, "id = ?", subTaskID).Error; err != nil {
		return fmt.Errorf("split: load sub-task %s: %w", subTaskID, err)
	}
	subs, err := loadGroups(db, st.ItemID)
	if err != nil {
		return err
	}
	var first *models.SubTask
	for i := range subs {
		if subs[i].ID != subTaskID {
			first = &subs[i]
			break
		}
	}
	if first == nil {
		return fmt.Errorf("split: cannot remove the only group of item %s", st.ItemID)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SubTask{}).Where("id = ?", first.ID).
			Update("quantity", first.Quantity+st.Quantity).Error; err != nil {
			return fmt.Errorf("split: merge into group %s: %w", first.ID, err)
		}
		if err := tx.Delete(&models.SubTask{}, "id = ?", subTaskID).Error; err != nil {
			return fmt.Errorf("split: delete group %s: %w", subTaskID, err)
		}
		return nil
	})
}

// ResizeGroup sets a group's quantity in a two-group split, transferring
// the delta to the other group. Rejects any resize that would drop
// either group below one unit.
func ResizeGroup(db *gorm.DB, subTaskID string, quantity int) error {
	var st models.SubTask
	if err := db.First(&st, "id = ?", subTaskID).Error; err != nil {
		return fmt.Errorf("split: load sub-task %s: %w", subTaskID, err)
	}
	subs, err := loadGroups(db, st.ItemID)
	if err != nil {
		return err
	}
	if len(subs) != 2 {
		return fmt.Errorf("split: resize requires exactly 2 groups, item %s has %d", st.ItemID, len(subs))
	}
	var other *models.SubTask
	for i := range subs {
		if subs[i].ID != subTaskID {
			other = &subs[i]
		}
	}
	otherQty := st.Quantity + other.Quantity - quantity
	if quantity < 1 || otherQty < 1 {
		return ErrGroupTooSmall
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SubTask{}).Where("id = ?", st.ID).
			Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("split: resize group %s: %w", st.ID, err)
		}
		if err := tx.Model(&models.SubTask{}).Where("id = ?", other.ID).
			Update("quantity", otherQty).Error; err != nil {
			return fmt.Errorf("split: resize group %s: %w", other.ID, err)
		}
		return nil
	})
}

// loadGroups returns the item's sub-tasks in creation order.
func loadGroups(db *gorm.DB, itemID string) ([]models.SubTask, error) {
	var subs []models.SubTask
	if err := db.Where("item_id = ?", itemID).Order("position ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("split: load groups of %s: %w", itemID, err)
	}
	if len(subs) == 0 {
		return nil, ErrNotSplit
	}
	return subs, nil
}

// currentStep resolves the stage new sub-tasks inherit: the split
// item's first unfinished group stage, or the legacy item's current
// assignment, or the order's first pipeline step.
func currentStep(item *models.Item) string {
	switch m := item.Mode().(type) {
	case models.SplitMode:
		sorted := make([]models.SubTask, len(m.SubTasks))
		copy(sorted, m.SubTasks)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
		for _, st := range sorted {
			if st.Status != models.StatusDone {
				return st.CurrentStep
			}
		}
		if len(sorted) > 0 {
			return sorted[len(sorted)-1].CurrentStep
		}
	case models.LegacyMode:
		if cur := process.CurrentAssignment(item); cur != nil {
			return cur.Step
		}
		if item.Order != nil {
			if steps := item.Order.StepList(); len(steps) > 0 {
				return steps[0]
			}
		}
	}
	return ""
}
