package process

import (
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

// CurrentAssignment resolves the current stage of a legacy-mode item:
// the first assignment, in pipeline order, that is not done. Returns
// nil when every stage is done. Always computed by scan — there is no
// stored current-stage field to fall out of sync.
func CurrentAssignment(item *models.Item) *models.Assignment {
	sorted := make([]models.Assignment, len(item.Assignments))
	copy(sorted, item.Assignments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StepOrder < sorted[j].StepOrder })
	for i := range sorted {
		if sorted[i].Status != models.StatusDone {
			return &sorted[i]
		}
	}
	return nil
}

// ItemStatus derives an item's status from its mode. A legacy item is
// done when all assignments are done, otherwise it carries its current
// assignment's status. A split item is done when all sub-tasks are
// done, in_progress when any is in_progress, else pending.
func ItemStatus(item *models.Item) string {
	switch m := item.Mode().(type) {
	case models.SplitMode:
		if len(m.SubTasks) == 0 {
			return models.StatusPending
		}
		allDone, anyInProgress := true, false
		for _, st := range m.SubTasks {
			if st.Status != models.StatusDone {
				allDone = false
			}
			if st.Status == models.StatusInProgress {
				anyInProgress = true
			}
		}
		if allDone {
			return models.StatusDone
		}
		if anyInProgress {
			return models.StatusInProgress
		}
		return models.StatusPending
	case models.LegacyMode:
		if len(m.Assignments) == 0 {
			return models.StatusPending
		}
		cur := CurrentAssignment(item)
		if cur == nil {
			return models.StatusDone
		}
		return cur.Status
	}
	return models.StatusPending
}

// CurrentWorker resolves the worker responsible for the item right now:
// the current assignment's worker in legacy mode, or empty for split
// items (each sub-task carries its own worker).
func CurrentWorker(item *models.Item) string {
	if _, ok := item.Mode().(models.SplitMode); ok {
		return ""
	}
	cur := CurrentAssignment(item)
	if cur == nil {
		return ""
	}
	return cur.WorkerID
}

// AssignStepWorker assigns a worker (and helpers) to one stage of a
// legacy-mode item and moves the stage to in_progress. Advisory
// availability is returned alongside, never blocking.
func AssignStepWorker(db *gorm.DB, itemID, step, workerID string, helpers []string, today time.Time) (*models.Assignment, Availability, error) {
	avail, err := CanWorkerStart(db, workerID, today)
	if err != nil {
		return nil, avail, err
	}

	var a models.Assignment
	if err := db.First(&a, "item_id = ? AND step = ?", itemID, step).Error; err != nil {
		return nil, avail, fmt.Errorf("process: load assignment %s/%s: %w", itemID, step, err)
	}
	if a.Status == models.StatusDone {
		return nil, avail, ErrAlreadyDone
	}
	a.WorkerID = workerID
	if err := a.SetHelpers(helpers); err != nil {
		return nil, avail, fmt.Errorf("process: encode helpers: %w", err)
	}
	if a.Status == models.StatusPending || a.Status == models.StatusDeferred {
		if err := transition(a.Status, &a.StartedAt, &a.CompletedAt, models.StatusInProgress, today); err != nil {
			return nil, avail, err
		}
		a.Status = models.StatusInProgress
	}
	if err := db.Save(&a).Error; err != nil {
		return nil, avail, fmt.Errorf("process: save assignment: %w", err)
	}

	// First stage starting marks the item itself as started.
	if err := markItemStarted(db, itemID, today); err != nil {
		return nil, avail, err
	}
	return &a, avail, nil
}

// SetAssignmentStatus moves one stage of a legacy item to the given
// status. Completing the final stage completes the item.
func SetAssignmentStatus(db *gorm.DB, itemID, step, status string, now time.Time) (*models.Assignment, error) {
	var a models.Assignment
	if err := db.First(&a, "item_id = ? AND step = ?", itemID, step).Error; err != nil {
		return nil, fmt.Errorf("process: load assignment %s/%s: %w", itemID, step, err)
	}
	if err := transition(a.Status, &a.StartedAt, &a.CompletedAt, status, now); err != nil {
		return nil, err
	}
	a.Status = status

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&a).Error; err != nil {
			return fmt.Errorf("process: save assignment: %w", err)
		}
		if status == models.StatusInProgress {
			return markItemStartedTx(tx, itemID, now)
		}
		if status != models.StatusDone {
			return nil
		}
		// All stages done completes the item.
		var remaining int64
		if err := tx.Model(&models.Assignment{}).
			Where("item_id = ? AND status != ?", itemID, models.StatusDone).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("process: count open assignments: %w", err)
		}
		if remaining == 0 {
			if err := tx.Model(&models.Item{}).Where("id = ?", itemID).
				Update("completed_at", now).Error; err != nil {
				return fmt.Errorf("process: complete item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func markItemStarted(db *gorm.DB, itemID string, now time.Time) error {
	return markItemStartedTx(db, itemID, now)
}

func markItemStartedTx(tx *gorm.DB, itemID string, now time.Time) error {
	if err := tx.Model(&models.Item{}).
		Where("id = ? AND started_at IS NULL", itemID).
		Update("started_at", now).Error; err != nil {
		return fmt.Errorf("process: mark item started: %w", err)
	}
	return nil
}
