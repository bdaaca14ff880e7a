package process

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

// Availability is the advisory result of the worker availability gate.
// Allowed=false never blocks; the caller decides whether to proceed.
type Availability struct {
	Allowed bool
	Reason  string
}

// GetAttendance returns the authoritative attendance record for a
// worker on a day, or nil when none is recorded. Corrections append
// rows, so the latest row per (worker, date) wins.
func GetAttendance(db *gorm.DB, workerID string, day time.Time) (*models.Attendance, error) {
	var a models.Attendance
	err := db.Where("worker_id = ? AND date = ?", workerID, models.DateOf(day)).
		Order("id DESC").First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("process: query attendance: %w", err)
	}
	return &a, nil
}

// GetMonthlyAttendance returns the authoritative attendance records for
// a worker across one month, in date order.
func GetMonthlyAttendance(db *gorm.DB, workerID string, year int, month time.Month) ([]models.Attendance, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var rows []models.Attendance
	err := db.Where("worker_id = ? AND date >= ? AND date < ?", workerID, from, to).
		Order("date ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("process: query monthly attendance: %w", err)
	}

	// Collapse corrections: keep the last row per date.
	byDate := make(map[time.Time]models.Attendance)
	var order []time.Time
	for _, r := range rows {
		d := models.DateOf(r.Date)
		if _, seen := byDate[d]; !seen {
			order = append(order, d)
		}
		byDate[d] = r
	}
	out := make([]models.Attendance, 0, len(order))
	for _, d := range order {
		out = append(out, byDate[d])
	}
	return out, nil
}

// SetAttendance appends an attendance record for (worker, date). Earlier
// rows for the key stay in place; this row becomes authoritative.
func SetAttendance(db *gorm.DB, workerID string, day time.Time, status, note string) (*models.Attendance, error) {
	switch status {
	case models.AttendancePresent, models.AttendanceField, models.AttendanceAbsent,
		models.AttendanceSick, models.AttendanceVacation, models.AttendanceWeekend:
	default:
		return nil, fmt.Errorf("process: unknown attendance status %q", status)
	}
	a := models.Attendance{
		WorkerID: workerID,
		Date:     models.DateOf(day),
		Status:   status,
		Note:     note,
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("process: create attendance: %w", err)
	}
	return &a, nil
}

// CanWorkerStart checks whether the worker can start new process work
// today based on attendance. The result is advisory only.
func CanWorkerStart(db *gorm.DB, workerID string, today time.Time) (Availability, error) {
	att, err := GetAttendance(db, workerID, today)
	if err != nil {
		return Availability{}, err
	}
	if att == nil {
		return Availability{Allowed: true}, nil
	}
	if att.Unavailable() {
		return Availability{
			Allowed: false,
			Reason:  fmt.Sprintf("worker %s is %s today", workerID, att.Status),
		}, nil
	}
	return Availability{Allowed: true}, nil
}
