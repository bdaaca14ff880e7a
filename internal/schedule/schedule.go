// Package schedule places work orders on the calendar and detects
// worker double-booking. Conflict detection is optimistic: it reads the
// current schedule snapshot, reports conflicts, and requires an
// explicit force to commit over them — no locks are taken, so two
// simultaneous editors can still race (accepted for low-concurrency
// shops; a per-worker version counter would close the window).
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidDateRange rejects windows with end before start.
	ErrInvalidDateRange = errors.New("schedule: end date before start date")
	// ErrOrderInProgress rejects rescheduling or unscheduling a running
	// order. The status read is authoritative; callers must not retry.
	ErrOrderInProgress = errors.New("schedule: order is in progress")
	// ErrOrderClosed rejects scheduling a done or cancelled order.
	ErrOrderClosed = errors.New("schedule: order is done or cancelled")
	// ErrNotScheduled rejects operations that need a scheduled order.
	ErrNotScheduled = errors.New("schedule: order is not scheduled")
)

// Result reports the outcome of a scheduling command. When conflicts
// exist and force was not set, Applied is false and nothing was
// written; the caller must re-issue the command with force to override.
type Result struct {
	Order     *models.WorkOrder
	Conflicts []WorkerConflict
	Applied   bool
	Message   string
}

// Schedule places a work order on [start, end]. Conflicting worker
// commitments are reported, never silently overridden.
func Schedule(db *gorm.DB, orderID string, start, end time.Time, force bool) (*Result, error) {
	start, end = models.DateOf(start), models.DateOf(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderDone, models.OrderCancelled:
		return nil, ErrOrderClosed
	case models.OrderInProgress:
		return nil, ErrOrderInProgress
	}

	workers, err := ImplicatedWorkers(db, orderID)
	if err != nil {
		return nil, err
	}
	report, err := CheckWorkerConflicts(db, workers, start, end, orderID)
	if err != nil {
		return nil, err
	}
	if report.HasConflicts && !force {
		return &Result{
			Order:     order,
			Conflicts: report.Conflicts,
			Message:   fmt.Sprintf("%d worker conflict(s); re-run with force to schedule anyway", len(report.Conflicts)),
		}, nil
	}

	order.PlannedStart = &start
	order.PlannedEnd = &end
	order.IsScheduled = true
	order.Status = models.OrderScheduled
	if err := db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("schedule: save order %s: %w", orderID, err)
	}
	return &Result{Order: order, Conflicts: report.Conflicts, Applied: true, Message: "scheduled"}, nil
}

// Reschedule moves a scheduled order to a new window. Rescheduling to
// the window the order already occupies is a no-op. Running orders can
// never be rescheduled.
func Reschedule(db *gorm.DB, orderID string, newStart, newEnd time.Time, force bool) (*Result, error) {
	newStart, newEnd = models.DateOf(newStart), models.DateOf(newEnd)
	if newEnd.Before(newStart) {
		return nil, ErrInvalidDateRange
	}

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderInProgress {
		return nil, ErrOrderInProgress
	}
	switch order.Status {
	case models.OrderDone, models.OrderCancelled:
		return nil, ErrOrderClosed
	}
	if !order.IsScheduled || order.PlannedStart == nil || order.PlannedEnd == nil {
		return nil, ErrNotScheduled
	}

	if models.DateOf(*order.PlannedStart).Equal(newStart) && models.DateOf(*order.PlannedEnd).Equal(newEnd) {
		return &Result{Order: order, Applied: true, Message: "no change"}, nil
	}

	workers, err := ImplicatedWorkers(db, orderID)
	if err != nil {
		return nil, err
	}
	report, err := CheckWorkerConflicts(db, workers, newStart, newEnd, orderID)
	if err != nil {
		return nil, err
	}
	if report.HasConflicts && !force {
		return &Result{
			Order:     order,
			Conflicts: report.Conflicts,
			Message:   fmt.Sprintf("%d worker conflict(s); re-run with force to move anyway", len(report.Conflicts)),
		}, nil
	}

	order.PlannedStart = &newStart
	order.PlannedEnd = &newEnd
	if err := db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("schedule: save order %s: %w", orderID, err)
	}
	return &Result{Order: order, Conflicts: report.Conflicts, Applied: true, Message: "rescheduled"}, nil
}

// DragReschedule shifts an order's window by the day offset between its
// planned start and the drop date, then delegates to Reschedule.
func DragReschedule(db *gorm.DB, orderID string, dropDate time.Time, force bool) (*Result, error) {
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsScheduled || order.PlannedStart == nil || order.PlannedEnd == nil {
		return nil, ErrNotScheduled
	}

	drop := models.DateOf(dropDate)
	start := models.DateOf(*order.PlannedStart)
	end := models.DateOf(*order.PlannedEnd)
	offset := int(drop.Sub(start).Hours() / 24)
	return Reschedule(db, orderID, start.AddDate(0, 0, offset), end.AddDate(0, 0, offset), force)
}

// Unschedule takes an order off the calendar. Running orders can never
// be unscheduled.
func Unschedule(db *gorm.DB, orderID string) (*models.WorkOrder, error) {
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderInProgress {
		return nil, ErrOrderInProgress
	}
	if !order.IsScheduled {
		return nil, ErrNotScheduled
	}

	workers, err := ImplicatedWorkers(db, orderID)
	if err != nil {
		return nil, err
	}
	order.PlannedStart = nil
	order.PlannedEnd = nil
	order.IsScheduled = false
	if len(workers) > 0 {
		order.Status = models.OrderAssigned
	} else {
		order.Status = models.OrderDraft
	}
	if err := db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("schedule: save order %s: %w", orderID, err)
	}
	return order, nil
}

// Start moves a scheduled order into production.
func Start(db *gorm.DB, orderID string) (*models.WorkOrder, error) {
	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderDone, models.OrderCancelled:
		return nil, ErrOrderClosed
	case models.OrderInProgress:
		return order, nil
	}
	if !order.IsScheduled {
		return nil, ErrNotScheduled
	}

	order.Status = models.OrderInProgress
	if err := db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("schedule: save order %s: %w", orderID, err)
	}
	return order, nil
}

func loadOrder(db *gorm.DB, orderID string) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("schedule: load order %s: %w", orderID, err)
	}
	return &order, nil
}
