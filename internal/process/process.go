// Package process implements the production state machine for items and
// sub-tasks: status transitions, pause tracking and work logging.
package process

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyDone rejects transitions out of the terminal done state.
	// Reopening finished work means creating a new sub-task instead.
	ErrAlreadyDone = errors.New("process: already done")
	// ErrAlreadyPaused rejects opening a second pause period.
	ErrAlreadyPaused = errors.New("process: already paused")
	// ErrNotPaused rejects resuming when no pause is open.
	ErrNotPaused = errors.New("process: not paused")
	// ErrPaused rejects recording work while a pause is open.
	ErrPaused = errors.New("process: paused, no work may be logged")
)

// ValidTransitions maps each status to its valid next statuses. Done is
// terminal; deferred is reachable from any non-terminal status.
var ValidTransitions = map[string][]string{
	models.StatusPending:    {models.StatusInProgress, models.StatusDone, models.StatusDeferred},
	models.StatusInProgress: {models.StatusDone, models.StatusDeferred},
	models.StatusDeferred:   {models.StatusPending, models.StatusInProgress},
	models.StatusDone:       {},
}

// GenerateID creates a unique ID in prefix-xxxxx format (5-char hex).
func GenerateID(prefix string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("process: generate ID: %w", err)
	}
	return prefix + "-" + hex.EncodeToString(b)[:5], nil
}

func isValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range ValidTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition applies a status change to the shared status fields,
// stamping StartedAt / CompletedAt as required.
func transition(status string, startedAt, completedAt **time.Time, to string, now time.Time) error {
	if status == models.StatusDone {
		return ErrAlreadyDone
	}
	if !isValidTransition(status, to) {
		return fmt.Errorf("process: invalid transition %s → %s", status, to)
	}
	if to == models.StatusInProgress && *startedAt == nil {
		t := now
		*startedAt = &t
	}
	if to == models.StatusDone {
		t := now
		*completedAt = &t
	}
	return nil
}

// SetSubTaskStatus moves a sub-task to the given status.
func SetSubTaskStatus(db *gorm.DB, subTaskID, status string, now time.Time) (*models.SubTask, error) {
	var st models.SubTask
	if err := db.First(&st, "id = ?", subTaskID).Error; err != nil {
		return nil, fmt.Errorf("process: load sub-task %s: %w", subTaskID, err)
	}
	if err := transition(st.Status, &st.StartedAt, &st.CompletedAt, status, now); err != nil {
		return nil, err
	}
	st.Status = status
	if err := db.Save(&st).Error; err != nil {
		return nil, fmt.Errorf("process: save sub-task %s: %w", subTaskID, err)
	}
	return &st, nil
}

// AssignSubTaskWorker assigns a primary worker (and helpers) to a
// sub-task and moves it to in_progress. The returned Availability is
// advisory: an unavailable worker does not block the assignment.
func AssignSubTaskWorker(db *gorm.DB, subTaskID, workerID string, helpers []string, today time.Time) (*models.SubTask, Availability, error) {
	avail, err := CanWorkerStart(db, workerID, today)
	if err != nil {
		return nil, avail, err
	}

	var st models.SubTask
	if err := db.First(&st, "id = ?", subTaskID).Error; err != nil {
		return nil, avail, fmt.Errorf("process: load sub-task %s: %w", subTaskID, err)
	}
	if st.Status == models.StatusDone {
		return nil, avail, ErrAlreadyDone
	}
	st.WorkerID = workerID
	if err := st.SetHelpers(helpers); err != nil {
		return nil, avail, fmt.Errorf("process: encode helpers: %w", err)
	}
	if st.Status == models.StatusPending || st.Status == models.StatusDeferred {
		if err := transition(st.Status, &st.StartedAt, &st.CompletedAt, models.StatusInProgress, today); err != nil {
			return nil, avail, err
		}
		st.Status = models.StatusInProgress
	}
	if err := db.Save(&st).Error; err != nil {
		return nil, avail, fmt.Errorf("process: save sub-task %s: %w", subTaskID, err)
	}
	return &st, avail, nil
}

// PauseSubTask opens a pause period on a sub-task.
func PauseSubTask(db *gorm.DB, subTaskID, reason string, now time.Time) (*models.PausePeriod, error) {
	var st models.SubTask
	if err := db.First(&st, "id = ?", subTaskID).Error; err != nil {
		return nil, fmt.Errorf("process: load sub-task %s: %w", subTaskID, err)
	}
	if st.Status == models.StatusDone {
		return nil, ErrAlreadyDone
	}
	open, err := openPause(db, nil, &subTaskID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyPaused
	}
	p := models.PausePeriod{SubTaskID: &subTaskID, Reason: reason, StartedAt: now}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("process: create pause: %w", err)
	}
	return &p, nil
}

// ResumeSubTask closes the open pause period on a sub-task.
func ResumeSubTask(db *gorm.DB, subTaskID string, now time.Time) (*models.PausePeriod, error) {
	open, err := openPause(db, nil, &subTaskID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNotPaused
	}
	open.EndedAt = &now
	if err := db.Save(open).Error; err != nil {
		return nil, fmt.Errorf("process: close pause: %w", err)
	}
	return open, nil
}

// PauseItem opens a pause period on a legacy-mode item.
func PauseItem(db *gorm.DB, itemID, reason string, now time.Time) (*models.PausePeriod, error) {
	var it models.Item
	if err := db.First(&it, "id = ?", itemID).Error; err != nil {
		return nil, fmt.Errorf("process: load item %s: %w", itemID, err)
	}
	if it.CompletedAt != nil {
		return nil, ErrAlreadyDone
	}
	open, err := openPause(db, &itemID, nil)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyPaused
	}
	p := models.PausePeriod{ItemID: &itemID, Reason: reason, StartedAt: now}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("process: create pause: %w", err)
	}
	return &p, nil
}

// ResumeItem closes the open pause period on an item.
func ResumeItem(db *gorm.DB, itemID string, now time.Time) (*models.PausePeriod, error) {
	open, err := openPause(db, &itemID, nil)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNotPaused
	}
	open.EndedAt = &now
	if err := db.Save(open).Error; err != nil {
		return nil, fmt.Errorf("process: close pause: %w", err)
	}
	return open, nil
}

// openPause returns the open pause period for an item or sub-task, or
// nil when none exists.
func openPause(db *gorm.DB, itemID, subTaskID *string) (*models.PausePeriod, error) {
	q := db.Where("ended_at IS NULL")
	switch {
	case itemID != nil:
		q = q.Where("item_id = ?", *itemID)
	case subTaskID != nil:
		q = q.Where("sub_task_id = ?", *subTaskID)
	}
	var p models.PausePeriod
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("process: query open pause: %w", err)
	}
	return &p, nil
}

// LogOpts holds parameters for recording a work log.
type LogOpts struct {
	ItemID    string
	SubTaskID string // optional
	WorkerID  string
	Step      string
	Date      time.Time
	DailyRate float64
	Note      string
}

// LogWork appends a work log for a day of performed work. Rejected with
// ErrPaused while the item or sub-task has an open pause. A repeated
// call for the same (worker, item, date) appends a correction row; the
// latest row per key is authoritative.
func LogWork(db *gorm.DB, opts LogOpts) (*models.WorkLog, error) {
	var it models.Item
	if err := db.First(&it, "id = ?", opts.ItemID).Error; err != nil {
		return nil, fmt.Errorf("process: load item %s: %w", opts.ItemID, err)
	}

	var open *models.PausePeriod
	var err error
	if opts.SubTaskID != "" {
		open, err = openPause(db, nil, &opts.SubTaskID)
	} else {
		open, err = openPause(db, &opts.ItemID, nil)
	}
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrPaused
	}

	log := models.WorkLog{
		OrderID:   it.OrderID,
		ItemID:    opts.ItemID,
		WorkerID:  opts.WorkerID,
		Step:      opts.Step,
		Date:      models.DateOf(opts.Date),
		DailyRate: opts.DailyRate,
		Note:      opts.Note,
	}
	if opts.SubTaskID != "" {
		log.SubTaskID = &opts.SubTaskID
	}
	if err := db.Create(&log).Error; err != nil {
		return nil, fmt.Errorf("process: create work log: %w", err)
	}
	return &log, nil
}
