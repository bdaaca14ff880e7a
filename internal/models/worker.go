package models

import "time"

// Attendance statuses.
const (
	AttendancePresent  = "present"
	AttendanceField    = "field"
	AttendanceAbsent   = "absent"
	AttendanceSick     = "sick"
	AttendanceVacation = "vacation"
	AttendanceWeekend  = "weekend"
)

// Worker is a shop-floor employee who can be assigned to process work.
type Worker struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"not null"`
	Role      string `gorm:"size:64"`
	DailyRate float64 `gorm:"default:0"`
	Active    bool    `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attendance records a worker's availability on one calendar day,
// independent of any work performed. Append-only: corrections are new
// rows and the latest row per (worker, date) is authoritative.
type Attendance struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	WorkerID  string    `gorm:"size:32;index:idx_attendance_worker_date;not null"`
	Date      time.Time `gorm:"type:date;index:idx_attendance_worker_date;not null"`
	Status    string    `gorm:"size:16;not null"`
	Note      string    `gorm:"size:255"`
	CreatedAt time.Time
}

// Unavailable reports whether the status rules out starting new process
// work (absent, sick or on vacation).
func (a *Attendance) Unavailable() bool {
	switch a.Status {
	case AttendanceAbsent, AttendanceSick, AttendanceVacation:
		return true
	}
	return false
}
