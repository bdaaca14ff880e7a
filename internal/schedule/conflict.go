package schedule

import (
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

// WorkerConflict describes one overlapping scheduled commitment of a
// worker on another work order.
type WorkerConflict struct {
	WorkerID     string
	WorkerName   string
	OrderID      string
	OrderTitle   string
	OverlapStart time.Time
	OverlapEnd   time.Time
}

// ConflictReport is the read-only projection handed to the caller when
// scheduling would double-book workers.
type ConflictReport struct {
	HasConflicts bool
	Conflicts    []WorkerConflict
}

// ImplicatedWorkers collects every worker ID bound to a work order:
// primaries and helpers across all assignments and sub-tasks of all
// items. The result is de-duplicated, in first-seen order.
func ImplicatedWorkers(db *gorm.DB, orderID string) ([]string, error) {
	var items []models.Item
	if err := db.Preload("Assignments").Preload("SubTasks").
		Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("schedule: load items of %s: %w", orderID, err)
	}

	seen := make(map[string]bool)
	var workers []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			workers = append(workers, id)
		}
	}
	for _, it := range items {
		switch m := it.Mode().(type) {
		case models.SplitMode:
			for _, st := range m.SubTasks {
				add(st.WorkerID)
				for _, h := range st.Helpers() {
					add(h)
				}
			}
		case models.LegacyMode:
			for _, a := range m.Assignments {
				add(a.WorkerID)
				for _, h := range a.Helpers() {
					add(h)
				}
			}
		}
	}
	return workers, nil
}

// CheckWorkerConflicts scans every other scheduled, non-closed work
// order sharing at least one of the given workers against the candidate
// [start, end] window. Overlap is closed-interval at day granularity;
// each overlapping order yields one conflict per shared worker with the
// clamped intersection of the two windows.
func CheckWorkerConflicts(db *gorm.DB, workerIDs []string, start, end time.Time, excludeOrderID string) (*ConflictReport, error) {
	report := &ConflictReport{}
	if len(workerIDs) == 0 {
		return report, nil
	}
	start, end = models.DateOf(start), models.DateOf(end)

	var others []models.WorkOrder
	q := db.Where("is_scheduled = ?", true).
		Where("status NOT IN ?", []string{models.OrderDone, models.OrderCancelled}).
		Where("planned_start <= ? AND planned_end >= ?", end, start)
	if excludeOrderID != "" {
		q = q.Where("id != ?", excludeOrderID)
	}
	if err := q.Find(&others).Error; err != nil {
		return nil, fmt.Errorf("schedule: scan scheduled orders: %w", err)
	}

	candidate := make(map[string]bool, len(workerIDs))
	for _, id := range workerIDs {
		candidate[id] = true
	}

	for _, other := range others {
		if other.PlannedStart == nil || other.PlannedEnd == nil {
			continue
		}
		otherWorkers, err := ImplicatedWorkers(db, other.ID)
		if err != nil {
			return nil, err
		}
		overlapStart := maxDay(start, models.DateOf(*other.PlannedStart))
		overlapEnd := minDay(end, models.DateOf(*other.PlannedEnd))
		for _, w := range otherWorkers {
			if !candidate[w] {
				continue
			}
			report.Conflicts = append(report.Conflicts, WorkerConflict{
				WorkerID:     w,
				WorkerName:   workerName(db, w),
				OrderID:      other.ID,
				OrderTitle:   other.Title,
				OverlapStart: overlapStart,
				OverlapEnd:   overlapEnd,
			})
		}
	}
	report.HasConflicts = len(report.Conflicts) > 0
	return report, nil
}

func workerName(db *gorm.DB, workerID string) string {
	var w models.Worker
	if err := db.First(&w, "id = ?", workerID).Error; err != nil {
		return workerID
	}
	return w.Name
}

func maxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
